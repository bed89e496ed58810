package cache

// Wire protocol for the remote cache: JSON request/response over NATS
// request-reply, one subject per operation under a shared prefix.

// DefaultSubjectPrefix is the subject namespace the daemon listens on.
const DefaultSubjectPrefix = "mdcache"

// Operation suffixes under the subject prefix.
const (
	opGenerateKey = "generate-key"
	opGet         = "get"
	opSet         = "set"
	opInvalidate  = "invalidate"
)

func subjectFor(prefix, op string) string {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return prefix + "." + op
}

// keyRequest asks the daemon to derive a cache key. Sending the raw content
// keeps derivation on one side of the wire, so client and daemon can never
// disagree on the algorithm.
type keyRequest struct {
	Path        string            `json:"path"`
	Content     string            `json:"content"`
	Theme       string            `json:"theme"`
	Preferences map[string]string `json:"preferences,omitempty"`
}

type keyResponse struct {
	Key   string `json:"key"`
	Error string `json:"error,omitempty"`
}

type getRequest struct {
	Key string `json:"key"`
}

// getResponse carries the result, or null for a miss. Backend failures set
// Error instead; the client decides how much a failure matters.
type getResponse struct {
	Result *Result `json:"result"`
	Error  string  `json:"error,omitempty"`
}

// setRequest reuses the Entry encoding.
type setRequest = Entry

// invalidateRequest reuses the Invalidation encoding.
type invalidateRequest = Invalidation

type statusResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}
