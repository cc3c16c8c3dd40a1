package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	salesapp "github.com/kardexhq/backend/internal/application/sales"
	"github.com/kardexhq/backend/internal/domain/inventory"
	"github.com/kardexhq/backend/internal/infrastructure/cache"
	"github.com/kardexhq/backend/internal/interfaces/http/dto"
)

func newSaleRouter(env *handlerEnv) *gin.Engine {
	sequencer := cache.NewInMemoryDocumentNumberSequencer(map[string]string{
		salesapp.DocTypeSale:       "SALE",
		salesapp.DocTypeCreditNote: "CN",
	})
	saleService := salesapp.NewSaleService(env.scope, sequencer)
	creditNoteService := salesapp.NewCreditNoteService(env.scope, sequencer)
	h := NewSaleHandler(saleService, creditNoteService)

	router := gin.New()
	g := router.Group("/sales")
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.POST("/:id/lines", h.AddLine)
	g.DELETE("/:id/lines/:line_id", h.RemoveLine)
	g.POST("/:id/complete", h.Complete)
	g.POST("/:id/void", h.Void)
	g.POST("/:id/credit-notes", h.CreateCreditNote)
	g.GET("/:id/credit-notes", h.ListCreditNotes)
	return router
}

func createDraftSale(t *testing.T, router *gin.Engine, storeID, actorID uuid.UUID) string {
	t.Helper()

	body := gin.H{"store_id": storeID.String()}
	w := doJSON(router, http.MethodPost, "/sales", body, actorID)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	resp := decodeResponse(t, w, true)
	return dataField(t, resp, "id").(string)
}

func saleLineBody(line *inventory.StockLine, quantity, unitPrice string) gin.H {
	return gin.H{
		"ref": gin.H{
			"kind": string(line.ProductRef.Kind()),
			"id":   line.ProductRef.ID().String(),
		},
		"quantity":   quantity,
		"unit_price": unitPrice,
	}
}

func TestSaleHandlerCreate(t *testing.T) {
	env := newHandlerEnv()
	router := newSaleRouter(env)

	storeID := uuid.New()
	body := gin.H{"store_id": storeID.String(), "notes": "walk-in"}
	w := doJSON(router, http.MethodPost, "/sales", body, uuid.New())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	resp := decodeResponse(t, w, true)
	assert.Equal(t, storeID.String(), dataField(t, resp, "store_id"))
	assert.Equal(t, "draft", dataField(t, resp, "status"))
	assert.Contains(t, dataField(t, resp, "document_number"), "SALE-")
}

func TestSaleHandlerCreateRequiresActor(t *testing.T) {
	env := newHandlerEnv()
	router := newSaleRouter(env)

	body := gin.H{"store_id": uuid.New().String()}
	w := doJSON(router, http.MethodPost, "/sales", body, uuid.Nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSaleHandlerAddLinePlacesHold(t *testing.T) {
	env := newHandlerEnv()
	router := newSaleRouter(env)

	storeID := uuid.New()
	actorID := uuid.New()
	line := env.seedStockLine(t, storeID, "10")
	saleID := createDraftSale(t, router, storeID, actorID)

	w := doJSON(router, http.MethodPost, "/sales/"+saleID+"/lines",
		saleLineBody(line, "3", "25.00"), actorID)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decodeResponse(t, w, true)
	lines, ok := dataField(t, resp, "lines").([]any)
	require.True(t, ok)
	require.Len(t, lines, 1)

	// the hold shows up on the stock line as reserved quantity
	wLine := doJSON(router, http.MethodGet, "/sales/"+saleID, nil, uuid.Nil)
	require.Equal(t, http.StatusOK, wLine.Code)

	got, err := env.stockLines.FindByID(t.Context(), line.ID)
	require.NoError(t, err)
	assert.Equal(t, "3", got.ReservedQuantity.String())
}

func TestSaleHandlerAddLineOverAvailable(t *testing.T) {
	env := newHandlerEnv()
	router := newSaleRouter(env)

	storeID := uuid.New()
	actorID := uuid.New()
	line := env.seedStockLine(t, storeID, "2")
	saleID := createDraftSale(t, router, storeID, actorID)

	w := doJSON(router, http.MethodPost, "/sales/"+saleID+"/lines",
		saleLineBody(line, "5", "25.00"), actorID)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	resp := decodeResponse(t, w, false)
	assert.Equal(t, dto.ErrCodeInsufficientAvailable, resp.Error.Code)
}

func TestSaleHandlerComplete(t *testing.T) {
	env := newHandlerEnv()
	router := newSaleRouter(env)

	storeID := uuid.New()
	actorID := uuid.New()
	line := env.seedStockLine(t, storeID, "10")
	saleID := createDraftSale(t, router, storeID, actorID)

	w := doJSON(router, http.MethodPost, "/sales/"+saleID+"/lines",
		saleLineBody(line, "4", "25.00"), actorID)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(router, http.MethodPost, "/sales/"+saleID+"/complete", nil, actorID)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decodeResponse(t, w, true)
	assert.Equal(t, "completed", dataField(t, resp, "status"))

	// stock deducted, hold consumed
	got, err := env.stockLines.FindByID(t.Context(), line.ID)
	require.NoError(t, err)
	assert.Equal(t, "6", got.Quantity.String())
	assert.True(t, got.ReservedQuantity.IsZero())
}

func TestSaleHandlerCompleteEmptySale(t *testing.T) {
	env := newHandlerEnv()
	router := newSaleRouter(env)

	actorID := uuid.New()
	saleID := createDraftSale(t, router, uuid.New(), actorID)

	w := doJSON(router, http.MethodPost, "/sales/"+saleID+"/complete", nil, actorID)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestSaleHandlerVoidDraftReleasesHolds(t *testing.T) {
	env := newHandlerEnv()
	router := newSaleRouter(env)

	storeID := uuid.New()
	actorID := uuid.New()
	line := env.seedStockLine(t, storeID, "10")
	saleID := createDraftSale(t, router, storeID, actorID)

	w := doJSON(router, http.MethodPost, "/sales/"+saleID+"/lines",
		saleLineBody(line, "3", "25.00"), actorID)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodPost, "/sales/"+saleID+"/void",
		gin.H{"reason": "customer left"}, actorID)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decodeResponse(t, w, true)
	assert.Equal(t, "voided", dataField(t, resp, "status"))

	got, err := env.stockLines.FindByID(t.Context(), line.ID)
	require.NoError(t, err)
	assert.True(t, got.ReservedQuantity.IsZero())
	assert.Equal(t, "10", got.Quantity.String())
}

func TestSaleHandlerVoidRequiresReason(t *testing.T) {
	env := newHandlerEnv()
	router := newSaleRouter(env)

	actorID := uuid.New()
	saleID := createDraftSale(t, router, uuid.New(), actorID)

	w := doJSON(router, http.MethodPost, "/sales/"+saleID+"/void", gin.H{}, actorID)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSaleHandlerCreditNoteFromCompletedSale(t *testing.T) {
	env := newHandlerEnv()
	router := newSaleRouter(env)

	storeID := uuid.New()
	actorID := uuid.New()
	line := env.seedStockLine(t, storeID, "10")
	saleID := createDraftSale(t, router, storeID, actorID)

	w := doJSON(router, http.MethodPost, "/sales/"+saleID+"/lines",
		saleLineBody(line, "4", "25.00"), actorID)
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(router, http.MethodPost, "/sales/"+saleID+"/complete", nil, actorID)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodPost, "/sales/"+saleID+"/credit-notes",
		gin.H{"reason": "defective unit"}, actorID)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	resp := decodeResponse(t, w, true)
	assert.Equal(t, "draft", dataField(t, resp, "status"))
	assert.Equal(t, saleID, dataField(t, resp, "sale_id"))

	w = doJSON(router, http.MethodGet, "/sales/"+saleID+"/credit-notes", nil, uuid.Nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp = decodeResponse(t, w, true)
	notes, ok := resp.Data.([]any)
	require.True(t, ok)
	assert.Len(t, notes, 1)
}

func TestSaleHandlerCreditNoteFromDraftSaleRejected(t *testing.T) {
	env := newHandlerEnv()
	router := newSaleRouter(env)

	actorID := uuid.New()
	saleID := createDraftSale(t, router, uuid.New(), actorID)

	w := doJSON(router, http.MethodPost, "/sales/"+saleID+"/credit-notes",
		gin.H{"reason": "defective unit"}, actorID)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestSaleHandlerList(t *testing.T) {
	env := newHandlerEnv()
	router := newSaleRouter(env)

	storeID := uuid.New()
	actorID := uuid.New()
	createDraftSale(t, router, storeID, actorID)
	createDraftSale(t, router, storeID, actorID)
	createDraftSale(t, router, uuid.New(), actorID) // other store

	w := doJSON(router, http.MethodGet, "/sales?store_id="+storeID.String(), nil, uuid.Nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeResponse(t, w, true)
	items, ok := resp.Data.([]any)
	require.True(t, ok)
	assert.Len(t, items, 2)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(2), resp.Meta.Total)
}
