package mip

// Credentials authenticate one session against the upstream API.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Org      string `json:"org"`
}

// loginResponse is the upstream login payload.
type loginResponse struct {
	AccessToken string `json:"AccessToken"`
}

// segmentDef is one chart segment definition.
type segmentDef struct {
	ID    int    `json:"COA_SEGID"`
	Title string `json:"TITLE"`
}

// segmentsResponse is the segment listing. The upstream API re-uses
// the key COA_SEGID both as the top-level key for the segment list and
// as the per-segment ID field.
type segmentsResponse struct {
	Segments []segmentDef `json:"COA_SEGID"`
}

// accountDef is one account definition within a segment.
type accountDef struct {
	SegmentID int    `json:"COA_SEGID"`
	Code      string `json:"COA_CODE"`
	Status    string `json:"COA_STATUS"`
	Title     string `json:"COA_TITLE"`
}

// accountsResponse is the account listing, keyed the same way as the
// segment listing.
type accountsResponse struct {
	Accounts []accountDef `json:"COA_SEGID"`
}

// accountStatusActive marks an active account.
const accountStatusActive = "A"

// balancesRequest is the fixed-shape trial-balance model request body.
type balancesRequest struct {
	DateFrom string `json:"DISPBAL_DATEFROM"`
	DateTo   string `json:"DISPBAL_DATETO"`
}
