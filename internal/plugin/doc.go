// Package plugin connects card sections and atoms to the code that displays
// and edits them.
//
// A post only stores a card's name and payload (or an atom's name, value
// and payload). Rendering them is delegated to plugins looked up by name in
// a Registry:
//
//	r := plugin.NewRegistry()
//	r.RegisterCard(plugin.CardFunc("hr", func(ctx context.Context, env *plugin.Env, payload map[string]any) (string, error) {
//	    return "----", nil
//	}))
//
// Names with no registered plugin are served by the fallback handler set
// with WithUnknownCardHandler or WithUnknownAtomHandler. Without one, the
// lookup fails with ErrUnknownCard or ErrUnknownAtom.
//
// Each call receives an Env. Through it a plugin can save a new payload,
// remove its section, or switch between display and edit mode. The engine
// applies these requests as ordinary transactions.
//
// Scripted plugins live in the lua subpackage.
package plugin
