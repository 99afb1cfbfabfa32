package citation

// Span locates a match both in the quoted unit and in the document's flat
// word sequence. WordEnd is exclusive. LineIndex is -1 when the start word
// offset could not be resolved to a line.
type Span struct {
	Start     int `json:"start"`
	End       int `json:"end"`
	WordStart int `json:"word_start"`
	WordEnd   int `json:"word_end"`
	LineIndex int `json:"line_index"`
}

// Occurrence is one instance of a citation inside a document.
type Occurrence struct {
	DocumentName string `json:"document_name"`
	Snippet      string `json:"snippet"`
	Context      string `json:"context"`
	Span         Span   `json:"span"`
}
