package emit

// BuildComplete is the event announced after a build's artifacts are fully
// written and published. Consumers use it to flip the live index generation
// and invalidate caches.
type BuildComplete struct {
	Manifest *Manifest `json:"manifest"`
	Dir      string    `json:"dir,omitempty"`
	KVPrefix string    `json:"kv_prefix,omitempty"`
}
