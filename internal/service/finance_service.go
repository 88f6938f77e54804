package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/woodline/crm-api/internal/domain"
	"github.com/woodline/crm-api/internal/repository"
)

// overduePaymentAge is how long an order may await payment before it counts
// as overdue in the summary.
const overduePaymentAge = 30 * 24 * time.Hour

// FinanceService aggregates payment figures across orders for the finance
// dashboard.
type FinanceService struct {
	orderRepo *repository.OrderRepository
	logger    *zap.Logger
}

func NewFinanceService(orderRepo *repository.OrderRepository, logger *zap.Logger) *FinanceService {
	return &FinanceService{orderRepo: orderRepo, logger: logger}
}

// PaymentSummary builds the dashboard summary: totals per payment status,
// monthly revenue for the trailing twelve months, and open/overdue counts.
// Revenue is attributed to the month an order closed.
func (s *FinanceService) PaymentSummary(ctx context.Context) (*domain.PaymentSummaryDTO, error) {
	aggregates, err := s.orderRepo.AggregatePayments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate payments: %w", err)
	}

	summary := &domain.PaymentSummaryDTO{
		CountByStatus:  make(map[domain.PaymentStatus]int64, len(aggregates)),
		AmountByStatus: make(map[domain.PaymentStatus]float64, len(aggregates)),
	}
	for _, agg := range aggregates {
		summary.CountByStatus[agg.PaymentStatus] = agg.Count
		summary.AmountByStatus[agg.PaymentStatus] = agg.TotalAmount
		summary.TotalFinalAmount += agg.TotalAmount

		switch agg.PaymentStatus {
		case domain.PaymentStatusFullyPaid:
			summary.TotalPaid += agg.TotalAmount
		case domain.PaymentStatusPartial:
			summary.TotalPaid += agg.PartialAmount
			summary.TotalOutstanding += agg.TotalAmount - agg.PartialAmount
		case domain.PaymentStatusUnpaid:
			summary.TotalOutstanding += agg.TotalAmount
		}
	}

	monthly, err := s.monthlyRevenue(ctx, 12)
	if err != nil {
		return nil, err
	}
	summary.MonthlyRevenue = monthly

	openCount, err := s.orderRepo.CountOpen(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count open orders: %w", err)
	}
	summary.OpenOrderCount = openCount

	overdue, err := s.countOverdue(ctx)
	if err != nil {
		return nil, err
	}
	summary.OverdueOrderCount = overdue

	return summary, nil
}

// monthlyRevenue buckets completed orders by closing month. The bucketing
// happens here rather than in SQL so the same query runs on Postgres and the
// sqlite databases used in tests.
func (s *FinanceService) monthlyRevenue(ctx context.Context, months int) ([]domain.MonthlyRevenueDTO, error) {
	since := time.Now().AddDate(0, -months, 0)
	orders, err := s.orderRepo.ListCompletedSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list completed orders: %w", err)
	}

	buckets := make(map[string]*domain.MonthlyRevenueDTO)
	for i := range orders {
		order := &orders[i]
		if order.ClosingDate == nil {
			continue
		}
		month := order.ClosingDate.Format("2006-01")
		bucket, ok := buckets[month]
		if !ok {
			bucket = &domain.MonthlyRevenueDTO{Month: month}
			buckets[month] = bucket
		}
		if order.FinalAmount != nil {
			bucket.Revenue += *order.FinalAmount
		}
		bucket.Orders++
	}

	result := make([]domain.MonthlyRevenueDTO, 0, len(buckets))
	for _, bucket := range buckets {
		result = append(result, *bucket)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Month < result[j].Month })
	return result, nil
}

// countOverdue counts orders that have awaited payment longer than the
// overdue threshold.
func (s *FinanceService) countOverdue(ctx context.Context) (int64, error) {
	orders, err := s.orderRepo.ListAwaitingPayment(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list orders awaiting payment: %w", err)
	}
	cutoff := time.Now().Add(-overduePaymentAge)
	var count int64
	for i := range orders {
		if orders[i].CreatedAt.Before(cutoff) {
			count++
		}
	}
	return count, nil
}
