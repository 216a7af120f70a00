// Package query отдаёт страницы смет клиента с offset-пагинацией.
package query

import (
	"context"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/qms/internal/domain"
)

// MaxPageSize: верхняя граница размера страницы.
const MaxPageSize = 100

// RangeKind: символический период выборки.
type RangeKind string

const (
	// RangeWeek: последние 7 дней по сегодняшний включительно.
	RangeWeek RangeKind = "WEEK"
	// RangeMonth: с первого числа текущего месяца по сегодня.
	RangeMonth RangeKind = "MONTH"
	// RangeCustom: явно заданные границы.
	RangeCustom RangeKind = "CUSTOM"
)

// Service выполняет постраничные выборки смет.
type Service struct {
	quotations domain.QuotationRepository
	loc        *time.Location
	logger     *log.Entry
}

// NewService создаёт сервис выборок. loc задаёт календарь для границ периодов (nil: UTC).
func NewService(quotations domain.QuotationRepository, loc *time.Location, logger *log.Entry) *Service {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = log.New().WithField("component", "quotation-query")
	}
	return &Service{quotations: quotations, loc: loc, logger: logger}
}

// GetByClient возвращает страницу смет клиента, новые первыми.
func (s *Service) GetByClient(ctx context.Context, clientID int64, page, pageSize int) (domain.Page[domain.Quotation], error) {
	if clientID <= 0 {
		return domain.Page[domain.Quotation]{}, domain.ErrInvalidClientID
	}
	return s.page(ctx, domain.QuotationFilter{ClientID: clientID}, page, pageSize)
}

// GetByDateRange возвращает страницу смет клиента, созданных в [start, end].
// Из start и end берётся только календарная дата, end включает весь свой день.
func (s *Service) GetByDateRange(ctx context.Context, clientID int64, start, end time.Time, page, pageSize int) (domain.Page[domain.Quotation], error) {
	if clientID <= 0 {
		return domain.Page[domain.Quotation]{}, domain.ErrInvalidClientID
	}
	from, to, err := s.bounds(start, end)
	if err != nil {
		return domain.Page[domain.Quotation]{}, err
	}
	return s.page(ctx, domain.QuotationFilter{
		ClientID:    clientID,
		CreatedFrom: from,
		CreatedTo:   to,
	}, page, pageSize)
}

// Search ищет сметы всех клиентов по необязательным границам дат и подстроке имени, без пагинации.
func (s *Service) Search(ctx context.Context, start, end *time.Time, nameQuery string) ([]domain.Quotation, error) {
	filter := domain.QuotationFilter{NameContains: strings.TrimSpace(nameQuery)}
	if start != nil {
		filter.CreatedFrom = calendarDay(*start, s.loc)
	}
	if end != nil {
		filter.CreatedTo = endOfDay(*end, s.loc)
	}
	if start != nil && end != nil && filter.CreatedFrom.After(filter.CreatedTo) {
		return nil, domain.ErrInvalidDateRange
	}

	items, _, err := s.quotations.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return items, nil
}

// ResolveRange переводит символический период в конкретные даты относительно now.
// Для CUSTOM обе границы обязательны.
func (s *Service) ResolveRange(kind RangeKind, now time.Time, customStart, customEnd *time.Time) (time.Time, time.Time, error) {
	today := domain.DateOnly(now, s.loc)

	switch RangeKind(strings.ToUpper(string(kind))) {
	case RangeWeek:
		return today.AddDate(0, 0, -7), today, nil
	case RangeMonth:
		return time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, s.loc), today, nil
	case RangeCustom:
		if customStart == nil || customEnd == nil {
			return time.Time{}, time.Time{}, domain.ErrFieldRequired
		}
		start, end := calendarDay(*customStart, s.loc), calendarDay(*customEnd, s.loc)
		if start.After(end) {
			return time.Time{}, time.Time{}, domain.ErrInvalidDateRange
		}
		return start, end, nil
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("range %q: %w", kind, domain.ErrInvalidDateRange)
	}
}

func (s *Service) page(ctx context.Context, filter domain.QuotationFilter, page, pageSize int) (domain.Page[domain.Quotation], error) {
	if err := ValidatePagination(page, pageSize); err != nil {
		return domain.Page[domain.Quotation]{}, err
	}

	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize

	items, total, err := s.quotations.List(ctx, filter)
	if err != nil {
		return domain.Page[domain.Quotation]{}, err
	}

	s.logger.WithFields(log.Fields{
		"client_id": filter.ClientID,
		"page":      page,
		"page_size": pageSize,
		"total":     total,
	}).Debug("quotation page loaded")

	return domain.NewPage(items, total, page, pageSize), nil
}

func (s *Service) bounds(start, end time.Time) (time.Time, time.Time, error) {
	from := calendarDay(start, s.loc)
	to := endOfDay(end, s.loc)
	if from.After(to) {
		return time.Time{}, time.Time{}, domain.ErrInvalidDateRange
	}
	return from, to, nil
}

// ValidatePagination проверяет page >= 1 и pageSize в [1, MaxPageSize].
func ValidatePagination(page, pageSize int) error {
	if page < 1 || pageSize < 1 || pageSize > MaxPageSize {
		return domain.ErrInvalidPagination
	}
	return nil
}

// calendarDay берёт год, месяц и день из t без перевода в loc и ставит полночь в loc.
func calendarDay(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

func endOfDay(t time.Time, loc *time.Location) time.Time {
	return calendarDay(t, loc).AddDate(0, 0, 1).Add(-time.Nanosecond)
}
