package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	baseURL string
	timeout time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cardledger-cli",
		Short: "CardLedger CLI tool",
		Long:  `A command line interface for interacting with the CardLedger API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the CardLedger API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	// Invoice commands
	invoiceCmd := &cobra.Command{
		Use:   "invoice",
		Short: "Invoice operations",
	}

	payCmd := &cobra.Command{
		Use:   "pay <invoice-id>",
		Short: "Mark an invoice as paid",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			post(fmt.Sprintf("/api/v1/invoices/%s/pay", args[0]))
		},
	}

	reopenCmd := &cobra.Command{
		Use:   "reopen <invoice-id>",
		Short: "Reopen a paid invoice",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			post(fmt.Sprintf("/api/v1/invoices/%s/reopen", args[0]))
		},
	}

	showCmd := &cobra.Command{
		Use:   "show <invoice-id>",
		Short: "Show an invoice",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			get(fmt.Sprintf("/api/v1/invoices/%s", args[0]))
		},
	}

	invoiceCmd.AddCommand(payCmd, reopenCmd, showCmd)
	rootCmd.AddCommand(invoiceCmd)

	// Summary commands
	summariesCmd := &cobra.Command{
		Use:   "summaries",
		Short: "Invoice summary operations",
	}

	refreshCmd := &cobra.Command{
		Use:   "refresh <invoice-id>",
		Short: "Recompute the summaries for an invoice",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			post(fmt.Sprintf("/api/v1/invoices/%s/summaries/refresh", args[0]))
		},
	}

	summariesCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(summariesCmd)

	// Ledger commands
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	consistencyCmd := &cobra.Command{
		Use:   "consistency",
		Short: "Check that invoice totals match their obligations",
		Run: func(cmd *cobra.Command, args []string) {
			get("/api/v1/ledger/consistency")
		},
	}

	ledgerCmd.AddCommand(consistencyCmd)
	rootCmd.AddCommand(ledgerCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func post(path string) {
	do(http.MethodPost, path)
}

func get(path string) {
	do(http.MethodGet, path)
}

func do(method, path string) {
	client := &http.Client{Timeout: timeout}

	req, err := http.NewRequest(method, baseURL+path, strings.NewReader(""))
	if err != nil {
		fmt.Printf("Error building request: %v\n", err)
		os.Exit(1)
	}

	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= http.StatusBadRequest {
		fmt.Printf("Request FAILED (Status: %d)\nResponse: %s\n", resp.StatusCode, string(body))
		os.Exit(1)
	}

	fmt.Println(string(body))
}
