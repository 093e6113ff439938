package dto

// UsageEntry is one day of issuance activity.
type UsageEntry struct {
	Day    string `json:"day"`
	Tokens int64  `json:"tokens"`
}

// UsageResponse reports a subject's recent issuance window, newest day
// first. Days without any issuance carry no entry.
type UsageResponse struct {
	Subject string       `json:"subject"`
	Usage   []UsageEntry `json:"usage"`
}
