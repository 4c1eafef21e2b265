package http

import (
	"time"

	"organizer/internal/core"
)

type transactionResponse struct {
	ID         string          `json:"id"`
	Kind       core.Kind       `json:"kind"`
	Title      string          `json:"title"`
	Amount     core.Money      `json:"amount"`
	Date       core.Date       `json:"date"`
	Category   core.Category   `json:"category"`
	Account    *string         `json:"account"`
	Notes      *string         `json:"notes"`
	Recurrence core.Recurrence `json:"recurrence"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

type periodResponse struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

type listResponse struct {
	Period       periodResponse        `json:"period"`
	Transactions []transactionResponse `json:"transactions"`
}

type summaryResponse struct {
	Period periodResponse `json:"period"`
	core.PeriodSummary
}

func newTransactionResponse(tx core.Transaction) transactionResponse {
	return transactionResponse{
		ID:         tx.ID,
		Kind:       tx.Kind,
		Title:      tx.Title,
		Amount:     tx.Amount,
		Date:       tx.Date,
		Category:   tx.Category,
		Account:    tx.Account,
		Notes:      tx.Notes,
		Recurrence: tx.Recurrence,
		CreatedAt:  tx.CreatedAt.UTC(),
		UpdatedAt:  tx.UpdatedAt.UTC(),
	}
}

func newListResponse(p core.Period, txs []core.Transaction) listResponse {
	out := make([]transactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, newTransactionResponse(tx))
	}
	return listResponse{Period: periodResponse{Year: p.Year, Month: p.Month}, Transactions: out}
}

func newSummaryResponse(p core.Period, s core.PeriodSummary) summaryResponse {
	if s.ByCategory == nil {
		s.ByCategory = []core.CategoryBreakdown{}
	}
	return summaryResponse{Period: periodResponse{Year: p.Year, Month: p.Month}, PeriodSummary: s}
}
