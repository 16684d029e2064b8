package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/webpiratt/autoswap/internal/types"
	"github.com/webpiratt/autoswap/storage"
)

type CreateScheduledSwapRequest struct {
	FromAsset string `json:"from_asset" validate:"required"`
	ToAsset   string `json:"to_asset" validate:"required"`
	Amount    string `json:"amount" validate:"required"`
}

type CreateLimitOrderRequest struct {
	Kind         string `json:"kind" validate:"required"`
	AssetToTrade string `json:"asset_to_trade" validate:"required"`
	CounterAsset string `json:"counter_asset" validate:"required"`
	TargetPrice  string `json:"target_price" validate:"required"`
	Amount       string `json:"amount" validate:"required"`
}

type CreateDCAOrderRequest struct {
	AssetToBuy           string `json:"asset_to_buy" validate:"required"`
	CounterAsset         string `json:"counter_asset" validate:"required"`
	AmountInCounterAsset string `json:"amount_in_counter_asset" validate:"required"`
	Periodicity          string `json:"periodicity" validate:"required"`
}

func (s *Server) CreateScheduledSwap(c echo.Context) error {
	var req CreateScheduledSwapRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("fail to parse request, err: %v", err))
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	created, err := s.orders.CreateScheduledSwap(c.Request().Context(), types.ScheduledSwapOrder{
		FromAsset: req.FromAsset,
		ToAsset:   req.ToAsset,
		Amount:    req.Amount,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, created)
}

func (s *Server) ListScheduledSwaps(c echo.Context) error {
	orders, err := s.orders.ListScheduledSwaps(c.Request().Context())
	if err != nil {
		return fmt.Errorf("fail to list scheduled swaps, err: %w", err)
	}
	return c.JSON(http.StatusOK, orders)
}

func (s *Server) CancelScheduledSwap(c echo.Context) error {
	id, err := parseOrderID(c)
	if err != nil {
		return err
	}
	return s.cancelResult(c, s.orders.CancelScheduledSwap(c.Request().Context(), id))
}

func (s *Server) ListExecutedSwaps(c echo.Context) error {
	records, err := s.orders.ListExecutedSwaps(c.Request().Context())
	if err != nil {
		return fmt.Errorf("fail to list executed swaps, err: %w", err)
	}
	return c.JSON(http.StatusOK, records)
}

func (s *Server) CreateLimitOrder(c echo.Context) error {
	var req CreateLimitOrderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("fail to parse request, err: %v", err))
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	target, err := decimal.NewFromString(req.TargetPrice)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid target price %q", req.TargetPrice))
	}

	created, err := s.orders.CreateLimitOrder(c.Request().Context(), types.LimitOrder{
		Kind:         types.LimitOrderKind(req.Kind),
		AssetToTrade: req.AssetToTrade,
		CounterAsset: req.CounterAsset,
		TargetPrice:  target,
		Amount:       req.Amount,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, created)
}

func (s *Server) ListLimitOrders(c echo.Context) error {
	orders, err := s.orders.ListLimitOrders(c.Request().Context())
	if err != nil {
		return fmt.Errorf("fail to list limit orders, err: %w", err)
	}
	return c.JSON(http.StatusOK, orders)
}

func (s *Server) CancelLimitOrder(c echo.Context) error {
	id, err := parseOrderID(c)
	if err != nil {
		return err
	}
	return s.cancelResult(c, s.orders.CancelLimitOrder(c.Request().Context(), id))
}

func (s *Server) ListExecutedLimitOrders(c echo.Context) error {
	records, err := s.orders.ListExecutedLimitOrders(c.Request().Context())
	if err != nil {
		return fmt.Errorf("fail to list executed limit orders, err: %w", err)
	}
	return c.JSON(http.StatusOK, records)
}

func (s *Server) CreateDCAOrder(c echo.Context) error {
	var req CreateDCAOrderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("fail to parse request, err: %v", err))
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	created, err := s.orders.CreateDCAOrder(c.Request().Context(), types.DCAOrder{
		AssetToBuy:           req.AssetToBuy,
		CounterAsset:         req.CounterAsset,
		AmountInCounterAsset: req.AmountInCounterAsset,
		Periodicity:          types.DCAPeriodicity(req.Periodicity),
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, created)
}

func (s *Server) ListDCAOrders(c echo.Context) error {
	orders, err := s.orders.ListDCAOrders(c.Request().Context())
	if err != nil {
		return fmt.Errorf("fail to list dca orders, err: %w", err)
	}
	return c.JSON(http.StatusOK, orders)
}

func (s *Server) CancelDCAOrder(c echo.Context) error {
	id, err := parseOrderID(c)
	if err != nil {
		return err
	}
	return s.cancelResult(c, s.orders.CancelDCAOrder(c.Request().Context(), id))
}

func parseOrderID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("orderId"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid order id %q", c.Param("orderId")))
	}
	return id, nil
}

func (s *Server) cancelResult(c echo.Context, err error) error {
	if err != nil {
		var notFound *storage.NotFoundError
		if errors.As(err, &notFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return fmt.Errorf("fail to cancel order, err: %w", err)
	}
	return c.NoContent(http.StatusOK)
}
