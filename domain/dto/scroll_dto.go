package dto

import "vod-catalog/domain/model"

// ScrollSessionRequest opens an infinite-scroll session.
// Mode is "category" or "filter"; Key is the category name or filter value.
type ScrollSessionRequest struct {
	Mode     string   `json:"mode" binding:"required,oneof=category filter"`
	Key      string   `json:"key" binding:"required"`
	PageSize int      `json:"pageSize"`
	SeedIDs  []string `json:"seedIds"`
}

type ScrollPositionRequest struct {
	ScrollTop    float64 `json:"scrollTop"`
	ScrollHeight float64 `json:"scrollHeight"`
	ClientHeight float64 `json:"clientHeight"`
	Threshold    float64 `json:"threshold"`
}

type ScrollSessionResponse struct {
	SessionID string        `json:"sessionId"`
	Mode      string        `json:"mode"`
	Key       string        `json:"key"`
	State     string        `json:"state"`
	Page      int           `json:"page"`
	Videos    []model.Video `json:"videos"`
	Added     []model.Video `json:"added,omitempty"`
	HasMore   bool          `json:"hasMore"`
	Triggered bool          `json:"triggered"`
}
