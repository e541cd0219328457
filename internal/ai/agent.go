package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"inventrobil-pos/internal/database"
	"inventrobil-pos/internal/models"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// maxToolRounds bounds how many times the model may call tools for one question.
const maxToolRounds = 5

// DataSource is the read-only view of the store the assistant may query.
type DataSource interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	SalesReport(ctx context.Context, period database.Period) (*database.SalesReport, error)
	Stats(ctx context.Context, lowStockThreshold int) (*database.Stats, error)
	StockValuation(ctx context.Context) (*database.Valuation, error)
}

// Assistant answers questions about stock and sales. It has no write tools:
// every change to the catalog still goes through the gated API.
type Assistant struct {
	client    *genai.Client
	modelName string
	tools     *Tools
	log       *zap.Logger
}

func New(ctx context.Context, apiKey, modelName string, data DataSource, lowStockThreshold int, log *zap.Logger) (*Assistant, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Assistant{
		client:    client,
		modelName: modelName,
		tools:     NewTools(data, lowStockThreshold),
		log:       log,
	}, nil
}

func (a *Assistant) Close() error {
	return a.client.Close()
}

// Ask runs one question through the model, executing tool calls until it answers in text.
func (a *Assistant) Ask(ctx context.Context, question string) (string, error) {
	model := a.client.GenerativeModel(a.modelName)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemPrompt(time.Now()))}}
	model.Tools = []*genai.Tool{{FunctionDeclarations: Declarations()}}

	session := model.StartChat()
	resp, err := session.SendMessage(ctx, genai.Text(question))
	if err != nil {
		return "", err
	}

	for round := 0; round < maxToolRounds; round++ {
		calls := functionCalls(resp)
		if len(calls) == 0 {
			return responseText(resp)
		}

		replies := make([]genai.Part, 0, len(calls))
		for _, call := range calls {
			a.log.Debug("Assistant tool call", zap.String("tool", call.Name))
			replies = append(replies, genai.FunctionResponse{
				Name:     call.Name,
				Response: a.tools.Execute(ctx, call.Name, call.Args),
			})
		}
		if resp, err = session.SendMessage(ctx, replies...); err != nil {
			return "", err
		}
	}
	return "", errors.New("assistant did not answer after repeated tool calls")
}

func systemPrompt(now time.Time) string {
	return fmt.Sprintf(`Today is %s. You are the assistant of a hardware store point-of-sale system.

RULES:
1. For anything about a product's price, stock, category or SKU, call 'check_inventory' and read the result. Never guess.
2. For items running out, call 'low_stock'.
3. For revenue, order counts or best sellers, call 'get_sales_report' with the date range the user means.
4. For the value of the stock on hand, call 'stock_valuation'.
5. For an overview of the shop, call 'store_summary'.
6. You cannot change prices, stock or products. If asked to, explain that a Manager must do it from the inventory screen.
Answer briefly, with amounts to two decimals.`, now.Format("2006-01-02"))
}

func functionCalls(resp *genai.GenerateContentResponse) []genai.FunctionCall {
	var calls []genai.FunctionCall
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if fc, ok := part.(genai.FunctionCall); ok {
				calls = append(calls, fc)
			}
		}
		break // first candidate only
	}
	return calls
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("assistant returned no answer")
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	return strings.TrimSpace(sb.String()), nil
}

// Declarations describes the read-only tools to the model.
func Declarations() []*genai.FunctionDeclaration {
	return []*genai.FunctionDeclaration{
		{
			Name:        "check_inventory",
			Description: "Get the full product list with ID, name, category, SKU, price and stock.",
		},
		{
			Name:        "low_stock",
			Description: "List products whose stock is below the low-stock threshold.",
		},
		{
			Name:        "get_sales_report",
			Description: "Get revenue, order count and best sellers for a date range.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"start_date": {Type: genai.TypeString, Description: "Start date (YYYY-MM-DD), inclusive"},
					"end_date":   {Type: genai.TypeString, Description: "End date (YYYY-MM-DD), inclusive"},
				},
				Required: []string{"start_date", "end_date"},
			},
		},
		{
			Name:        "store_summary",
			Description: "Get product count, low-stock count, transaction count and all-time revenue.",
		},
		{
			Name:        "stock_valuation",
			Description: "Get the value of stock on hand (stock x price), grouped by category.",
		},
	}
}

// Tools executes tool calls against the store.
type Tools struct {
	data              DataSource
	lowStockThreshold int
}

func NewTools(data DataSource, lowStockThreshold int) *Tools {
	return &Tools{data: data, lowStockThreshold: lowStockThreshold}
}

type simpleProduct struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	SKU      string `json:"sku"`
	Stock    int    `json:"stock"`
	Price    string `json:"price"`
}

// Execute runs the named tool. Failures are reported to the model as {"error": ...}.
func (t *Tools) Execute(ctx context.Context, name string, args map[string]any) map[string]any {
	result, err := t.execute(ctx, name, args)
	if err != nil {
		return map[string]any{"error": err.Error()}
	}
	body, err := json.Marshal(result)
	if err != nil {
		return map[string]any{"error": err.Error()}
	}
	return map[string]any{"result": string(body)}
}

func (t *Tools) execute(ctx context.Context, name string, args map[string]any) (any, error) {
	switch name {
	case "check_inventory":
		products, err := t.data.ListProducts(ctx)
		if err != nil {
			return nil, err
		}
		return simplify(products, func(models.Product) bool { return true }), nil

	case "low_stock":
		products, err := t.data.ListProducts(ctx)
		if err != nil {
			return nil, err
		}
		return simplify(products, func(p models.Product) bool { return p.Stock < t.lowStockThreshold }), nil

	case "get_sales_report":
		period, err := periodFromArgs(args)
		if err != nil {
			return nil, err
		}
		report, err := t.data.SalesReport(ctx, period)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"total_revenue": report.TotalRevenue.StringFixed(2),
			"total_orders":  report.TotalOrders,
			"top_selling":   report.TopSelling,
		}, nil

	case "store_summary":
		return t.data.Stats(ctx, t.lowStockThreshold)

	case "stock_valuation":
		return t.data.StockValuation(ctx)
	}
	return nil, fmt.Errorf("unknown tool %q", name)
}

func simplify(products []models.Product, keep func(models.Product) bool) []simpleProduct {
	out := []simpleProduct{}
	for _, p := range products {
		if !keep(p) {
			continue
		}
		out = append(out, simpleProduct{
			ID:       p.ID,
			Name:     p.Name,
			Category: p.Category,
			SKU:      p.SKU,
			Stock:    p.Stock,
			Price:    p.Price.StringFixed(2),
		})
	}
	return out
}

// periodFromArgs reads an inclusive YYYY-MM-DD range.
func periodFromArgs(args map[string]any) (database.Period, error) {
	start, _ := args["start_date"].(string)
	end, _ := args["end_date"].(string)
	from, err := time.Parse("2006-01-02", start)
	if err != nil {
		return database.Period{}, fmt.Errorf("start_date must be YYYY-MM-DD")
	}
	to, err := time.Parse("2006-01-02", end)
	if err != nil {
		return database.Period{}, fmt.Errorf("end_date must be YYYY-MM-DD")
	}
	return database.Period{From: from, To: to.AddDate(0, 0, 1)}, nil
}
