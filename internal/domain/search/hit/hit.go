package hit

// Hit is a single raw document returned by the search index.
// Searched text and tag fields travel in Extra and are never surfaced to clients.
type Hit struct {
	ID        string
	Username  string
	Age       int
	Region    string
	AvatarURL string
	Extra     map[string]string
}
