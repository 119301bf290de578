// Package forum implements moderated discussion sessions.
//
// A Forum owns one transcript, one drill-down queue, the active discourse
// mode and an optional staged anchor document. A Router turns typed chair
// actions into transcript turns by composing persona instructions, building
// the outgoing message and calling a Generator:
//
//	router := forum.NewRouter(registry, gateway.New(model))
//	f := forum.New()
//	res, err := router.Dispatch(ctx, f, forum.DirectAddress{
//		Target: core.SpeakerGeneticist,
//		Text:   "What explains the vocabulary spurt?",
//	})
//
// Only one action runs per forum at a time. Distinct forums share nothing
// but the read-only registry and generator.
package forum
