package models

type AnalyzeVideoRequest struct {
	VideoURL string `json:"video_url"`
}

// RunSummary is the headline numbers returned to the caller after a run.
type RunSummary struct {
	VideoID          string  `json:"video_id"`
	Title            string  `json:"title"`
	Channel          string  `json:"channel"`
	TotalComments    int     `json:"total_comments"`
	Positive         int     `json:"pos"`
	Negative         int     `json:"neg"`
	Neutral          int     `json:"neu"`
	AvgPolarity      float64 `json:"avg_polarity"`
	AvgSubjectivity  float64 `json:"avg_subjectivity"`
	AvgCommentLength float64 `json:"avg_comment_length"`
	TotalLikes       int     `json:"total_likes"`
}

type AnalyzeVideoResponse struct {
	Message string     `json:"message"`
	Outputs []string   `json:"outputs"`
	Summary RunSummary `json:"summary"`
}

// ArtifactRef names one produced file and the generator that owns it.
type ArtifactRef struct {
	Name      string `json:"name"`
	Generator string `json:"generator"`
}

// Manifest is the ordered set of artifacts a run actually produced.
type Manifest struct {
	Artifacts []ArtifactRef `json:"artifacts"`
	seen      map[string]bool
}

// Add records names under generator, ignoring names already present.
func (m *Manifest) Add(generator string, names ...string) {
	if m.seen == nil {
		m.seen = make(map[string]bool)
	}
	for _, n := range names {
		if n == "" || m.seen[n] {
			continue
		}
		m.seen[n] = true
		m.Artifacts = append(m.Artifacts, ArtifactRef{Name: n, Generator: generator})
	}
}

func (m *Manifest) Names() []string {
	names := make([]string, 0, len(m.Artifacts))
	for _, a := range m.Artifacts {
		names = append(names, a.Name)
	}
	return names
}

func (m *Manifest) Contains(name string) bool {
	return m.seen[name]
}

type OutputListResponse struct {
	Files []string `json:"files"`
}

type SentimentResponse struct {
	Polarity     float64   `json:"polarity"`
	Subjectivity float64   `json:"subjectivity"`
	Sentiment    Sentiment `json:"sentiment"`
}
