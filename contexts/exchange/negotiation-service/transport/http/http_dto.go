package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreatePublicationRequest struct {
	ArticleName    string   `json:"article_name"`
	Description    string   `json:"description"`
	ReferencePrice *float64 `json:"reference_price,omitempty"`
}

type SubmitOfferRequest struct {
	ItemName        string   `json:"item_name"`
	ItemDescription string   `json:"item_description"`
	ItemPrice       *float64 `json:"item_price,omitempty"`
}

type PublicationDTO struct {
	PublicationID  string   `json:"publication_id"`
	OwnerID        string   `json:"owner_id"`
	ArticleName    string   `json:"article_name"`
	Description    string   `json:"description"`
	ReferencePrice *float64 `json:"reference_price,omitempty"`
	State          string   `json:"state"`
	CreatedAt      string   `json:"created_at"`
	UpdatedAt      string   `json:"updated_at"`
	ReservedAt     string   `json:"reserved_at,omitempty"`
	ClosedAt       string   `json:"closed_at,omitempty"`
}

type OfferDTO struct {
	OfferID         string   `json:"offer_id"`
	PublicationID   string   `json:"publication_id"`
	BidderID        string   `json:"bidder_id"`
	ItemName        string   `json:"item_name"`
	ItemDescription string   `json:"item_description"`
	ItemPrice       *float64 `json:"item_price,omitempty"`
	State           string   `json:"state"`
	CreatedAt       string   `json:"created_at"`
	RespondedAt     string   `json:"responded_at,omitempty"`
}

type CreatePublicationResponse struct {
	Publication PublicationDTO `json:"publication"`
}

type GetPublicationResponse struct {
	Publication PublicationDTO `json:"publication"`
}

type ListPublicationsResponse struct {
	Items []PublicationDTO `json:"items"`
}

type SubmitOfferResponse struct {
	Offer OfferDTO `json:"offer"`
}

type GetOfferResponse struct {
	Offer OfferDTO `json:"offer"`
}

type ListOffersResponse struct {
	Items []OfferDTO `json:"items"`
}

type SummaryResponse struct {
	Publication PublicationDTO `json:"publication"`
	Total       int            `json:"total"`
	Pending     int            `json:"pending"`
	Accepted    int            `json:"accepted"`
	Rejected    int            `json:"rejected"`
}
