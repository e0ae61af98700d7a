package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"google.golang.org/protobuf/types/known/structpb"

	grpc_adapter "github.com/JoeShih716/go-office-ledger/internal/app/core/adapter/in/grpc"
	"github.com/JoeShih716/go-office-ledger/pkg/grpc"
)

// 對同一位員工並發記帳，確認每筆分錄的餘額都不同且最終餘額正確
func main() {
	var (
		grpcAddr    = flag.String("grpc", "localhost:50051", "gRPC server address")
		httpAddr    = flag.String("http", "http://localhost:8080", "HTTP server base URL, used to log in")
		email       = flag.String("email", "admin@example.com", "admin email")
		password    = flag.String("password", "admin123", "admin password")
		employeeID  = flag.Int64("employee", 1, "employee id to charge")
		totalCount  = flag.Int("n", 1000, "number of withdrawals")
		concurrency = flag.Int("c", 100, "concurrent requests")
	)
	flag.Parse()

	log, _ := zap.NewDevelopment()
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	token, err := login(ctx, *httpAddr, *email, *password)
	if err != nil {
		log.Fatal("login failed", zap.Error(err))
	}

	pool := grpc.NewPool(grpc.WithBearerToken(token))
	defer pool.Close()
	conn, err := pool.GetConnection(*grpcAddr)
	if err != nil {
		log.Fatal("did not connect", zap.Error(err))
	}
	client := grpc_adapter.NewLedgerClient(conn)

	before, err := balance(ctx, client, *employeeID)
	if err != nil {
		log.Fatal("get balance failed", zap.Error(err))
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		balances = make(map[string]int, *totalCount)
		failed   int
	)
	sem := make(chan struct{}, *concurrency)
	startTime := time.Now()

	for i := 0; i < *totalCount; i++ {
		sem <- struct{}{}
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()

			req, _ := structpb.NewStruct(map[string]any{
				"employee_id":      *employeeID,
				"kind":             "withdrawal",
				"amount":           "1.00",
				"transaction_date": time.Now().UTC().Format(time.DateOnly),
				"payment_method":   "load-test",
			})
			resp, err := client.RecordTransaction(ctx, req)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				if idx%100 == 0 {
					log.Warn("record transaction failed", zap.Int("idx", idx), zap.Error(err))
				}
				return
			}
			balances[resp.GetFields()["balance"].GetStringValue()]++
		}(i)
	}
	wg.Wait()
	elapsed := time.Since(startTime)

	after, err := balance(ctx, client, *employeeID)
	if err != nil {
		log.Fatal("get balance failed", zap.Error(err))
	}

	duplicates := 0
	for _, n := range balances {
		if n > 1 {
			duplicates += n - 1
		}
	}
	succeeded := *totalCount - failed
	expected := before.Sub(decimal.NewFromInt(int64(succeeded)))

	fmt.Printf("Completed %d requests in %v (%d failed)\n", *totalCount, elapsed, failed)
	fmt.Printf("TPS: %.2f\n", float64(*totalCount)/elapsed.Seconds())
	fmt.Printf("Balance: %s -> %s (expected %s)\n", before.StringFixed(2), after.StringFixed(2), expected.StringFixed(2))
	fmt.Printf("Duplicate balances: %d\n", duplicates)
	if duplicates > 0 || !after.Equal(expected) {
		log.Fatal("lost update detected")
	}
}

func login(ctx context.Context, baseURL, email, password string) (string, error) {
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/api/login", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login status %d", resp.StatusCode)
	}
	var out struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.Data.Token, nil
}

func balance(ctx context.Context, client *grpc_adapter.LedgerClient, employeeID int64) (decimal.Decimal, error) {
	req, _ := structpb.NewStruct(map[string]any{"employee_id": employeeID})
	resp, err := client.GetBalance(ctx, req)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(resp.GetFields()["balance"].GetStringValue())
}
