// Package discovery embeds the discovery and matching engine in a Go
// program without the HTTP API.
//
// The caller supplies its own profile store; candidates are searched in a
// Redis/Valkey search index or a Typesense collection.
//
//	client, _ := discovery.New(ctx,
//	    discovery.WithRedis("localhost:6379", ""),
//	    discovery.WithProfiles(myProfiles),
//	)
//	defer client.Close()
//
//	s, err := client.Open(ctx, "u1", discovery.ModeFriend)
//	if err != nil { ... }
//	out, _ := s.Search(ctx, discovery.Criteria{MinAge: 21, MaxAge: 40, Region: "CA"})
//	for _, c := range out.Candidates { ... }
//
// Searches in a session are last-request-wins: starting a new search
// discards the result of the one in flight. Update debounces criteria
// edits the way a typing user would produce them.
package discovery
