package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	inventoryapp "github.com/kardexhq/backend/internal/application/inventory"
	"github.com/kardexhq/backend/internal/domain/inventory"
	"github.com/kardexhq/backend/internal/domain/shared/valueobject"
	"github.com/kardexhq/backend/internal/infrastructure/persistence/memory"
	"github.com/kardexhq/backend/internal/interfaces/http/dto"
)

// handlerEnv wires handlers over in-memory repositories for HTTP tests.
type handlerEnv struct {
	stockLines   *memory.StockLineRepository
	movements    *memory.MovementRepository
	reservations *memory.ReservationRepository
	scope        *inventoryapp.NoOpTransactionScope
}

func newHandlerEnv() *handlerEnv {
	stockLines := memory.NewStockLineRepository()
	movements := memory.NewMovementRepository()
	reservations := memory.NewReservationRepository()
	return &handlerEnv{
		stockLines:   stockLines,
		movements:    movements,
		reservations: reservations,
		scope: inventoryapp.NewNoOpTransactionScope(
			stockLines, movements, reservations,
			nil, nil,
			memory.NewSaleRepository(), memory.NewCreditNoteRepository(),
			nil, nil,
		),
	}
}

// seedStockLine creates a stock line with the given on-hand quantity.
func (e *handlerEnv) seedStockLine(t *testing.T, storeID uuid.UUID, quantity string) *inventory.StockLine {
	t.Helper()

	ref, err := inventory.NewProductRef(uuid.New())
	require.NoError(t, err)

	line, err := inventory.NewStockLine(storeID, ref)
	require.NoError(t, err)
	if quantity != "" && quantity != "0" {
		require.NoError(t, line.Receive(
			decimal.RequireFromString(quantity),
			valueobject.NewMoneyHNL(decimal.RequireFromString("10")),
		))
	}
	require.NoError(t, e.stockLines.Create(context.Background(), line))
	return line
}

// doJSON performs a JSON request against the router with an actor header.
func doJSON(router *gin.Engine, method, path string, body any, actorID uuid.UUID) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if actorID != uuid.Nil {
		req.Header.Set(ActorIDHeader, actorID.String())
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// decodeResponse unmarshals the envelope and asserts the success flag.
func decodeResponse(t *testing.T, w *httptest.ResponseRecorder, wantSuccess bool) dto.Response {
	t.Helper()

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, wantSuccess, resp.Success, "body: %s", w.Body.String())
	return resp
}

// dataField digs a field out of the response data object.
func dataField(t *testing.T, resp dto.Response, field string) any {
	t.Helper()

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok, "data is not an object: %v", resp.Data)
	return data[field]
}
