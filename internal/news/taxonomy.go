package news

// TopicRef identifies one topic discovered so far in an aggregation pass.
// The full list across all sectors is handed to the classifier so it can
// recognize duplicates regardless of which sector they landed in.
type TopicRef struct {
	Sector    string `json:"sector"`
	TopicName string `json:"topic_name"`
}

// Classification is the per-article result of a classifier call. It is
// consumed immediately to update aggregation state and never persisted.
type Classification struct {
	Sector     string
	TopicName  string
	Importance int
}

// TopicAccumulator collects the members of one topic within a sector.
// Fingerprints and Importance are parallel sequences in classification order;
// they always have equal length.
type TopicAccumulator struct {
	Fingerprints []string `json:"hashes"`
	Importance   []int    `json:"importance"`
}

// Add appends one member article to the accumulator.
func (t *TopicAccumulator) Add(fingerprint string, importance int) {
	t.Fingerprints = append(t.Fingerprints, fingerprint)
	t.Importance = append(t.Importance, importance)
}

// SectorTopicMap maps sector -> topic name -> accumulated members.
// Every fixed sector is present as a key, even when it holds no topics.
type SectorTopicMap map[string]map[string]*TopicAccumulator

// NewSectorTopicMap returns a map with one empty topic map per fixed sector.
func NewSectorTopicMap() SectorTopicMap {
	m := make(SectorTopicMap, len(Sectors))
	for _, s := range Sectors {
		m[s] = make(map[string]*TopicAccumulator)
	}
	return m
}

// Candidates flattens every known (sector, topic) pair into the list shown
// to the classifier. Order is not significant.
func (m SectorTopicMap) Candidates() []TopicRef {
	var refs []TopicRef
	for sector, topics := range m {
		for name := range topics {
			refs = append(refs, TopicRef{Sector: sector, TopicName: name})
		}
	}
	return refs
}

// TopicSummary is one synthesized topic in the final per-sector output.
// Sources and URLs are parallel to the topic's member sequence.
type TopicSummary struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Summary     string   `json:"summary"`
	Sources     []string `json:"sources"`
	URLs        []string `json:"urls"`
	Importance  float64  `json:"importance"`
}

// SectorSummary is the final serving artifact for one sector. Recomputed
// wholesale each run, never patched.
type SectorSummary struct {
	LandingSummary string         `json:"landingSummary"`
	Topics         []TopicSummary `json:"topics"`
}
