package types

// QuotaResponse 存储用量与配额，Limit <= 0 表示不限制.
type QuotaResponse struct {
	Used      int64 `json:"used"`
	Limit     int64 `json:"limit"`
	Remaining int64 `json:"remaining"`
	Unlimited bool  `json:"unlimited"`
}

// NewQuotaResponse 计算剩余空间.
func NewQuotaResponse(used, limit int64) QuotaResponse {
	if limit <= 0 {
		return QuotaResponse{Used: used, Limit: 0, Unlimited: true}
	}

	return QuotaResponse{Used: used, Limit: limit, Remaining: max(limit-used, 0)}
}
