package packets

import "github.com/lu2a-dev/dayplaner/internal/model"

// ShareResponse decorates a shared plan with the public URL a viewer opens.
type ShareResponse struct {
	model.SharedPlan
	ShareURL string `json:"share_url"`
}

func NewShareResponse(s model.SharedPlan, frontendURL string) ShareResponse {
	return ShareResponse{SharedPlan: s, ShareURL: frontendURL + "/share/" + s.ShareToken}
}

func NewShareResponses(shares []model.SharedPlan, frontendURL string) []ShareResponse {
	out := make([]ShareResponse, 0, len(shares))
	for _, s := range shares {
		out = append(out, NewShareResponse(s, frontendURL))
	}
	return out
}
