package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/neusse/ez-orders/internal/auth"
	"github.com/neusse/ez-orders/internal/brokerage"
	"github.com/neusse/ez-orders/internal/database"
	"github.com/neusse/ez-orders/internal/ezorders"
	"github.com/neusse/ez-orders/internal/templates"
	"github.com/neusse/ez-orders/internal/types"
)

const (
	minOrders     = 15
	maxOrders     = 150
	numWorkers    = 5
	serverAddress = "http://localhost:8080"
)

var symbols = []string{"AAPL", "GOOGL", "MSFT", "AMZN", "META"}

// init configures the logger for the simulation with pretty printing and timestamp
func init() {
	// Configure pretty logging
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	log.Logger = zerolog.New(output).With().Timestamp().Logger()
}

// routeStats tracks performance statistics for an API endpoint
type routeStats struct {
	name       string
	durations  []time.Duration
	totalCalls int
	failures   int
}

// addDuration records a new duration measurement for the route
func (rs *routeStats) addDuration(d time.Duration) {
	rs.durations = append(rs.durations, d)
	rs.totalCalls++
}

// calculate computes performance statistics from recorded durations
// Returns min, max, mean, median, 95th percentile, and 99th percentile durations
func (rs *routeStats) calculate() (min, max, mean, median, p95, p99 time.Duration) {
	if len(rs.durations) == 0 {
		return 0, 0, 0, 0, 0, 0
	}

	// Sort durations for percentile calculations
	sort.Slice(rs.durations, func(i, j int) bool {
		return rs.durations[i] < rs.durations[j]
	})

	min = rs.durations[0]
	max = rs.durations[len(rs.durations)-1]

	// Calculate mean
	var sum time.Duration
	for _, d := range rs.durations {
		sum += d
	}
	mean = sum / time.Duration(len(rs.durations))

	// Calculate median
	median = rs.durations[len(rs.durations)/2]

	// Calculate percentiles
	p95idx := int(math.Ceil(float64(len(rs.durations))*0.95)) - 1
	p99idx := int(math.Ceil(float64(len(rs.durations))*0.99)) - 1
	p95 = rs.durations[p95idx]
	p99 = rs.durations[p99idx]

	return
}

// simulationClient handles HTTP communication with the order API
type simulationClient struct {
	baseURL   string
	authToken string
	client    *http.Client
	stats     map[string]*routeStats
}

// newSimulationClient creates and initializes a new simulation client
// It authenticates with the API and prepares performance tracking
func newSimulationClient() (*simulationClient, error) {
	// Create HTTP client with timeout
	client := &http.Client{
		Timeout: 10 * time.Second,
	}

	sc := &simulationClient{
		baseURL: serverAddress,
		client:  client,
		stats: map[string]*routeStats{
			"auth":    {name: "Authentication"},
			"build":   {name: "Build Order"},
			"preview": {name: "Preview Order"},
			"submit":  {name: "Submit Order"},
		},
	}

	// Get auth token
	token, err := sc.authenticate()
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate: %w", err)
	}
	sc.authToken = token

	return sc, nil
}

// authenticate performs API authentication and returns a JWT token
func (sc *simulationClient) authenticate() (string, error) {
	start := time.Now()
	defer func() {
		sc.stats["auth"].addDuration(time.Since(start))
	}()

	credentials := map[string]string{
		"api_key":    auth.TestAPIKey,
		"api_secret": auth.TestAPISecret,
	}

	body, err := json.Marshal(credentials)
	if err != nil {
		return "", err
	}

	resp, err := sc.client.Post(
		fmt.Sprintf("%s/api/v1/auth/token", sc.baseURL),
		"application/json",
		bytes.NewBuffer(body),
	)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("authentication failed with status: %d", resp.StatusCode)
	}

	var result struct {
		Data struct {
			Token string `json:"jwt_token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}

	return result.Data.Token, nil
}

// post sends an order request to the given endpoint and decodes the
// standard envelope into out.
func (sc *simulationClient) post(statKey, path string, order *types.OrderRequest, out interface{}) error {
	start := time.Now()
	stats := sc.stats[statKey]
	defer func() {
		stats.addDuration(time.Since(start))
	}()

	body, err := json.Marshal(order)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(
		"POST",
		fmt.Sprintf("%s%s", sc.baseURL, path),
		bytes.NewBuffer(body),
	)
	if err != nil {
		return err
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", sc.authToken))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", uuid.New().String())

	resp, err := sc.client.Do(req)
	if err != nil {
		stats.failures++
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		stats.failures++
		return fmt.Errorf("failed to read response body: %w", err)
	}
	log.Debug().Str("response", string(respBody)).Str("path", path).Msg("API response")

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		stats.failures++
		return fmt.Errorf("%s failed with status %d: %s", path, resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to decode response: %w, body: %s", err, string(respBody))
		}
	}
	return nil
}

// buildOrder asks the API to build the request into a payload
func (sc *simulationClient) buildOrder(order *types.OrderRequest) (*types.BuildResponse, error) {
	var result struct {
		Data types.BuildResponse `json:"data"`
	}
	if err := sc.post("build", "/api/v1/orders/build", order, &result); err != nil {
		return nil, err
	}
	return &result.Data, nil
}

// previewOrder runs the brokerage preview on the request
func (sc *simulationClient) previewOrder(order *types.OrderRequest) (*types.PreviewResult, error) {
	var result struct {
		Data types.PreviewResult `json:"data"`
	}
	if err := sc.post("preview", "/api/v1/orders/preview", order, &result); err != nil {
		return nil, err
	}
	return &result.Data, nil
}

// submitOrder submits the request for real
func (sc *simulationClient) submitOrder(order *types.OrderRequest) (*types.SubmissionResult, error) {
	var result struct {
		Data types.SubmissionResult `json:"data"`
	}
	if err := sc.post("submit", "/api/v1/orders/submit", order, &result); err != nil {
		return nil, err
	}
	return &result.Data, nil
}

// printPerformanceStats outputs formatted performance statistics for all API endpoints
func (sc *simulationClient) printPerformanceStats() {
	fmt.Println("\nAPI Performance Statistics")
	fmt.Println(strings.Repeat("-", 100))
	fmt.Printf("%-20s %10s %10s %10s %10s %10s %10s %10s %10s\n",
		"Endpoint", "Calls", "Errors", "Min", "Max", "Mean", "Median", "P95", "P99")
	fmt.Println(strings.Repeat("-", 100))

	for _, stats := range sc.stats {
		min, max, mean, median, p95, p99 := stats.calculate()
		fmt.Printf("%-20s %10d %10d %10s %10s %10s %10s %10s %10s\n",
			stats.name,
			stats.totalCalls,
			stats.failures,
			min.Round(time.Millisecond),
			max.Round(time.Millisecond),
			mean.Round(time.Millisecond),
			median.Round(time.Millisecond),
			p95.Round(time.Millisecond),
			p99.Round(time.Millisecond))
	}
	fmt.Println(strings.Repeat("-", 100))
}

// randomOrderRequest produces a mix of simple equity orders, vertical
// spreads and bracket orders, all confirmed and modestly sized so most pass
// the notional ceiling.
func randomOrderRequest() *types.OrderRequest {
	symbol := symbols[rand.Intn(len(symbols))]
	shares := rand.Intn(20) + 1
	price := float64(rand.Intn(300)+20) + rand.Float64()

	switch rand.Intn(5) {
	case 0: // market order
		action := "BUY"
		if rand.Intn(2) == 0 {
			action = "SELL"
		}
		return &types.OrderRequest{
			Legs:      []types.LegRequest{{Action: action, Symbol: symbol, Quantity: shares}},
			OrderType: "MARKET",
			Confirmed: true,
		}
	case 1: // vertical call spread
		contracts := rand.Intn(3) + 1
		return &types.OrderRequest{
			Legs: []types.LegRequest{
				{Action: "BUY_TO_OPEN", Symbol: symbol + "_240119C100", Quantity: contracts},
				{Action: "SELL_TO_OPEN", Symbol: symbol + "_240119C105", Quantity: contracts},
			},
			OrderType:   "NET_DEBIT",
			Price:       rand.Float64()*3 + 0.5,
			StrategyTag: "VERTICAL",
			Confirmed:   true,
		}
	case 2: // bracket: entry triggers an OCO of profit target and stop
		return &types.OrderRequest{
			Legs:      []types.LegRequest{{Action: "BUY", Symbol: symbol, Quantity: shares}},
			OrderType: "LIMIT",
			Price:     price,
			Confirmed: true,
			Children: []*types.OrderRequest{
				{
					Legs:            []types.LegRequest{{Action: "SELL", Symbol: symbol, Quantity: shares}},
					OrderType:       "LIMIT",
					Price:           price * 1.10,
					TimeInForce:     "GTC",
					CompositionMode: "TRIGGER",
					Children: []*types.OrderRequest{
						{
							Legs:            []types.LegRequest{{Action: "SELL", Symbol: symbol, Quantity: shares}},
							OrderType:       "STOP",
							StopPrice:       price * 0.95,
							TimeInForce:     "GTC",
							CompositionMode: "OCO",
						},
					},
				},
			},
		}
	default: // plain limit order
		action := "BUY"
		if rand.Intn(2) == 0 {
			action = "SELL"
		}
		return &types.OrderRequest{
			Legs:        []types.LegRequest{{Action: action, Symbol: symbol, Quantity: shares}},
			OrderType:   "LIMIT",
			Price:       price,
			TimeInForce: "DAY",
			Confirmed:   true,
		}
	}
}

type simStats struct {
	mu            sync.Mutex
	totalRequests int
	built         int
	previewed     int
	submitted     int
	rejected      int
	failed        int
	symbols       map[string]int
	statuses      map[string]int
}

// main runs the order flow simulation
// It starts a local API server and simulates multiple concurrent clients
func main() {
	// Start the server in a goroutine
	go func() {
		if err := startServer(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for server to start
	time.Sleep(2 * time.Second)

	// Initialize simulation client
	simClient, err := newSimulationClient()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize simulation client")
	}

	// Generate random number of orders to process
	targetOrders := rand.Intn(maxOrders-minOrders) + minOrders
	log.Info().Int("target_orders", targetOrders).Msg("Starting simulation")

	stats := &simStats{
		symbols:  make(map[string]int),
		statuses: make(map[string]int),
	}
	startTime := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			runWorker(workerID, targetOrders/numWorkers, simClient, stats)
		}(i)
	}
	wg.Wait()

	duration := time.Since(startTime)

	// Print summary
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("ORDER FLOW SIMULATION SUMMARY")
	fmt.Println(strings.Repeat("=", 80))

	fmt.Printf(`
Order Statistics
----------------
Total Requests:  %d
Built:           %d
Previewed:       %d
Submitted:       %d
Rejected:        %d
Failed:          %d
Duration:        %v

Symbol Distribution
-------------------
`, stats.totalRequests, stats.built, stats.previewed, stats.submitted,
		stats.rejected, stats.failed, duration.Round(time.Millisecond))

	// Print symbol distribution with simple ASCII bar chart
	maxSymbolCount := 0
	for _, count := range stats.symbols {
		if count > maxSymbolCount {
			maxSymbolCount = count
		}
	}
	for symbol, count := range stats.symbols {
		barLength := int(float64(count) / float64(maxSymbolCount) * 20)
		bar := strings.Repeat("#", barLength)
		fmt.Printf("%-6s: %s (%d)\n", symbol, bar, count)
	}

	fmt.Println("\nSubmission Status Distribution")
	fmt.Println("------------------------------")
	for status, count := range stats.statuses {
		fmt.Printf("%-10s: %d\n", status, count)
	}

	fmt.Println("\n" + strings.Repeat("=", 80))

	successRate := 0.0
	if stats.totalRequests > 0 {
		successRate = float64(stats.submitted) / float64(stats.totalRequests) * 100
	}
	log.Info().
		Float64("success_rate", successRate).
		Int("total_requests", stats.totalRequests).
		Int("submitted", stats.submitted).
		Dur("duration", duration).
		Msg("Simulation completed")

	simClient.printPerformanceStats()
}

// runWorker generates random orders and pushes each one through the
// build/preview/submit flow, recording outcomes in stats
func runWorker(workerID, numOrders int, simClient *simulationClient, stats *simStats) {
	for i := 0; i < numOrders; i++ {
		order := randomOrderRequest()
		symbol := order.Legs[0].Symbol

		stats.mu.Lock()
		stats.totalRequests++
		stats.symbols[strings.SplitN(symbol, "_", 2)[0]]++
		stats.mu.Unlock()

		built, err := simClient.buildOrder(order)
		if err != nil {
			log.Error().Err(err).Int("worker_id", workerID).Msg("Failed to build order")
			stats.mu.Lock()
			stats.failed++
			stats.mu.Unlock()
			continue
		}
		stats.mu.Lock()
		stats.built++
		stats.mu.Unlock()

		preview, err := simClient.previewOrder(order)
		if err == nil {
			stats.mu.Lock()
			stats.previewed++
			stats.mu.Unlock()
			if len(preview.Rejections) > 0 {
				log.Warn().
					Int("worker_id", workerID).
					Str("symbol", symbol).
					Str("rejection", preview.Rejections[0].Message).
					Msg("Preview rejected order, skipping submit")
				stats.mu.Lock()
				stats.rejected++
				stats.mu.Unlock()
				continue
			}
		}

		result, err := simClient.submitOrder(order)
		if err != nil {
			log.Warn().Err(err).Int("worker_id", workerID).Str("symbol", symbol).Msg("Submit refused")
			stats.mu.Lock()
			stats.rejected++
			stats.mu.Unlock()
			continue
		}

		stats.mu.Lock()
		stats.submitted++
		stats.statuses[result.Status]++
		stats.mu.Unlock()

		log.Info().
			Int("worker_id", workerID).
			Str("order_id", result.OrderID).
			Str("symbol", symbol).
			Int("legs", len(built.Order.OrderLegCollection)).
			Str("status", result.Status).
			Msg("Order submitted")

		// Random sleep between orders
		time.Sleep(time.Duration(rand.Intn(500)) * time.Millisecond)
	}
}

// startServer initializes and starts the order API server
// Sets up all required services, handlers and routes
func startServer() error {
	// Initialize database
	db, err := database.NewDatabase("simulation.db")
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	// Initialize services
	authService := auth.NewService("ez-orders-sim-secret", time.Hour)
	authService.RegisterAPICredentials(auth.TestAPIKey, auth.TestAPISecret)

	templateService := templates.NewService(db)
	brokerageClient := brokerage.NewClient()

	config := ezorders.DefaultConfig()
	config.MaxOrderValue = 50_000

	orderService := ezorders.NewService(config, db)
	orderService.SetPreviewFunc(brokerageClient.Preview)
	orderService.SetSubmitFunc(brokerageClient.Submit)
	orderService.SetTemplateStore(templateService)

	// Initialize router
	router := gin.Default()
	authHandlers := auth.NewGinHandlers(authService)
	orderHandlers := ezorders.NewGinHandlers(orderService)
	templateHandlers := templates.NewGinHandlers(templateService)

	// Setup routes
	setupRoutes(router, authHandlers, orderHandlers, templateHandlers)

	// Start the server
	return router.Run(":8080")
}

// setupRoutes configures all API endpoints and their handlers
// Groups routes by functionality; the simulation skips JWT middleware
func setupRoutes(
	router *gin.Engine,
	authHandlers *auth.GinHandlers,
	orderHandlers *ezorders.GinHandlers,
	templateHandlers *templates.GinHandlers,
) {
	v1 := router.Group("/api/v1")
	{
		// Auth routes
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/token", authHandlers.GenerateTokenHandler())
		}

		// Order routes
		orderGroup := v1.Group("/orders")
		{
			orderGroup.POST("/build", orderHandlers.BuildOrderHandler())
			orderGroup.POST("/preview", orderHandlers.PreviewOrderHandler())
			orderGroup.POST("/submit", orderHandlers.SubmitOrderHandler())
		}

		// Template routes
		templateGroup := v1.Group("/templates")
		{
			templateGroup.PUT("/:name", templateHandlers.SaveTemplateHandler())
			templateGroup.GET("/:name", templateHandlers.GetTemplateHandler())
			templateGroup.GET("", templateHandlers.ListTemplatesHandler())
			templateGroup.DELETE("/:name", templateHandlers.DeleteTemplateHandler())
		}

		// History
		historyGroup := v1.Group("/history")
		{
			historyGroup.GET("", orderHandlers.OrderHistoryHandler())
		}
	}
}
