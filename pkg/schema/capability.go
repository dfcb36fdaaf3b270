package schema

// ProviderName identifies one external capability. The set is fixed at startup.
type ProviderName string

const (
	ProviderClassroom   ProviderName = "classroom"
	ProviderVoiceCall   ProviderName = "voice-call"
	ProviderEmail       ProviderName = "email"
	ProviderWebResearch ProviderName = "web-research"
	ProviderChat        ProviderName = "chat"
	ProviderDocuments   ProviderName = "documents"
)

// KnownProviders returns the full provider set in registration order.
func KnownProviders() []ProviderName {
	return []ProviderName{
		ProviderClassroom,
		ProviderVoiceCall,
		ProviderEmail,
		ProviderWebResearch,
		ProviderChat,
		ProviderDocuments,
	}
}

// Snapshot maps every known provider to its availability flag. It is computed
// lazily on first query and lives until explicitly invalidated.
type Snapshot map[ProviderName]bool

// Clone returns a copy so callers can't mutate the cached snapshot.
func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return nil
	}
	out := make(Snapshot, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}
