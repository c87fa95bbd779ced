package mobiledoc

import "github.com/dshills/quire/internal/engine/model"

// Serializer renders and parses posts at LatestVersion. It satisfies the
// snapshot serializer used by edit history.
type Serializer struct{}

// Render serializes post at LatestVersion.
func (Serializer) Render(post *model.Post) ([]byte, error) {
	return Render(post, LatestVersion)
}

// Parse builds a post from data with b.
func (Serializer) Parse(b *model.Builder, data []byte) (*model.Post, error) {
	return Parse(b, data)
}
