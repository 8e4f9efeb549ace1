package dto

import "posledger/internal/domain/dashboard"

// DayTotalResponse is one point of the weekly series.
type DayTotalResponse struct {
	Date  string `json:"date"`
	Total int64  `json:"total"`
}

// DashboardSummaryResponse is the body of GET /dashboard/summary.
type DashboardSummaryResponse struct {
	TotalSales    int64              `json:"totalSales"`
	TotalRevenue  string             `json:"totalRevenue"`
	TotalProducts int64              `json:"totalProducts"`
	SalesLastWeek []DayTotalResponse `json:"salesLastWeek"`
}

// FromSummary converts the domain summary.
func FromSummary(s *dashboard.Summary) DashboardSummaryResponse {
	out := DashboardSummaryResponse{
		TotalSales:    s.TotalSales,
		TotalRevenue:  Money(s.TotalRevenue),
		TotalProducts: s.TotalProducts,
		SalesLastWeek: make([]DayTotalResponse, len(s.SalesLastWeek)),
	}
	for i, d := range s.SalesLastWeek {
		out.SalesLastWeek[i] = DayTotalResponse{Date: d.Date, Total: d.Total}
	}
	return out
}
