// widgetctl is a CLI tool for exercising the widget proxy API.
// Each command performs a single operation, making it composable for scripts.
//
// Commands:
//
//	widgetctl search -proxy URL -token TOKEN [-email ADDR] [-phone NUMBER]
//	widgetctl cancel -proxy URL -token TOKEN -order ID
//	widgetctl refund -proxy URL -token TOKEN -order ID
//
// Examples:
//
//	widgetctl search -proxy http://localhost:8080 -token $WIDGET_TOKEN -email jane@example.com
//	widgetctl cancel -proxy http://localhost:8080 -token $WIDGET_TOKEN -order 812
//	widgetctl refund -proxy http://localhost:8080 -token $WIDGET_TOKEN -order 812
//
// The token can also be supplied via the WIDGET_TOKEN environment variable.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

var client = &http.Client{Timeout: 30 * time.Second}

// Global flags (apply to all commands)
var (
	proxyURL string
	endpoint string
	token    string
	quiet    bool
	noColor  bool
	verbose  bool
)

// ANSI color codes
var (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

func init() {
	if os.Getenv("NO_COLOR") != "" {
		disableColors()
	}
}

func disableColors() {
	colorReset, colorRed, colorGreen = "", "", ""
	colorYellow, colorCyan, colorGray, colorBold = "", "", "", ""
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "search":
		runSearch(args)
	case "cancel":
		runCancel(args)
	case "refund":
		runRefund(args)
	case "-h", "-help", "--help", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `widgetctl - Missive widget proxy test tool

Usage:
  widgetctl <command> [options]

Commands:
  search    Find a customer and their recent orders by email or phone
  cancel    Cancel an order and restock its items
  refund    Refund an order's full total and restock its items

Examples:
  # Look up a customer
  widgetctl search -proxy http://localhost:8080 -token "$WIDGET_TOKEN" -email jane@example.com

  # Cancel an order
  widgetctl cancel -proxy http://localhost:8080 -token "$WIDGET_TOKEN" -order 812

  # Refund an order
  widgetctl refund -proxy http://localhost:8080 -token "$WIDGET_TOKEN" -order 812

Run 'widgetctl <command> -h' for command-specific options.
`)
}

// registerCommonFlags wires the flags shared by every command.
func registerCommonFlags(fs *flag.FlagSet) {
	fs.StringVar(&proxyURL, "proxy", "http://localhost:8080", "Widget proxy base URL")
	fs.StringVar(&endpoint, "endpoint", "missive-widget", "Widget endpoint path segment")
	fs.StringVar(&token, "token", os.Getenv("WIDGET_TOKEN"), "Widget access token (or WIDGET_TOKEN env)")
	fs.BoolVar(&quiet, "q", false, "Quiet mode - minimal output")
	fs.BoolVar(&noColor, "no-color", false, "Disable colored output")
	fs.BoolVar(&verbose, "v", false, "Verbose - show full request/response")
}

// =============================================================================
// SEARCH COMMAND
// =============================================================================

func runSearch(args []string) {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	registerCommonFlags(fs)
	var email, phone string
	fs.StringVar(&email, "email", "", "Customer email address")
	fs.StringVar(&phone, "phone", "", "Customer phone number")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: widgetctl search [-email ADDR] [-phone NUMBER] [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	if noColor {
		disableColors()
	}
	if token == "" || (email == "" && phone == "") {
		fs.Usage()
		os.Exit(1)
	}

	params := url.Values{"action": {"search-customer"}, "token": {token}}
	if email != "" {
		params.Set("email", email)
	}
	if phone != "" {
		params.Set("phone", phone)
	}

	resp, err := doRequest("GET", params, nil)
	if err != nil {
		fatal("Search failed: %v", err)
	}

	customer, _ := resp["customer"].(map[string]interface{})
	if customer == nil {
		if quiet {
			fmt.Println("none")
		} else {
			printWarning("No customer found")
		}
		return
	}

	if quiet {
		fmt.Printf("%v\n", customer["email"])
		return
	}

	printSuccess("Customer found")
	fmt.Printf("  Name:  %s%v %v%s\n", colorCyan, customer["first_name"], customer["last_name"], colorReset)
	fmt.Printf("  Email: %v\n", customer["email"])
	fmt.Printf("  Phone: %v\n", customer["phone"])
	fmt.Printf("  Total orders: %v\n", customer["total_orders"])

	orders, _ := resp["orders"].([]interface{})
	if len(orders) > 0 {
		fmt.Printf("  %sRecent orders:%s\n", colorYellow, colorReset)
		for _, o := range orders {
			order, ok := o.(map[string]interface{})
			if !ok {
				continue
			}
			fmt.Printf("    #%v  %v  %v  %v  %v\n",
				order["id"], order["date_created"], order["status"],
				order["total"], order["product_name"])
		}
	}
}

// =============================================================================
// CANCEL COMMAND
// =============================================================================

func runCancel(args []string) {
	resp := runOrderAction("cancel", "cancel-order", args)

	order, _ := resp["order"].(map[string]interface{})
	if quiet {
		fmt.Printf("%v\n", order["status"])
		return
	}
	printSuccess("Order cancelled")
	fmt.Printf("  Order #%v is now %s%v%s\n", order["id"], colorCyan, order["status"], colorReset)
}

// =============================================================================
// REFUND COMMAND
// =============================================================================

func runRefund(args []string) {
	resp := runOrderAction("refund", "refund-order", args)

	order, _ := resp["order"].(map[string]interface{})
	refund, _ := resp["refund"].(map[string]interface{})
	if quiet {
		fmt.Printf("%v\n", refund["id"])
		return
	}
	printSuccess("Order refunded")
	fmt.Printf("  Order #%v\n", order["id"])
	fmt.Printf("  Refund #%v for %s%v%s\n", refund["id"], colorGreen, refund["amount"], colorReset)
}

// runOrderAction parses the shared mutate flags and posts the action.
func runOrderAction(name, action string, args []string) map[string]interface{} {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	registerCommonFlags(fs)
	var orderID int
	fs.IntVar(&orderID, "order", 0, "Order ID (required)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: widgetctl %s -order ID [options]\n\nOptions:\n", name)
		fs.PrintDefaults()
	}
	fs.Parse(args)

	if noColor {
		disableColors()
	}
	if token == "" || orderID == 0 {
		fs.Usage()
		os.Exit(1)
	}

	params := url.Values{"action": {action}}
	body := map[string]interface{}{"order_id": orderID, "token": token}

	resp, err := doRequest("POST", params, body)
	if err != nil {
		fatal("Failed to %s order: %v", name, err)
	}
	return resp
}

// =============================================================================
// HTTP HELPERS
// =============================================================================

func doRequest(method string, params url.Values, body interface{}) (map[string]interface{}, error) {
	var reqBody io.Reader
	var reqJSON []byte

	if body != nil {
		var err error
		reqJSON, err = json.MarshalIndent(body, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshaling request: %w", err)
		}
		reqBody = bytes.NewReader(reqJSON)
	}

	reqURL := strings.TrimSuffix(proxyURL, "/") + "/" + endpoint + "?" + params.Encode()
	req, err := http.NewRequest(method, reqURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if !quiet {
		printRequest(method, params.Get("action"), reqJSON)
	}

	start := time.Now()
	resp, err := client.Do(req)
	duration := time.Since(start)

	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if !quiet {
		printResponse(resp.StatusCode, respBody, duration)
	}

	var result map[string]interface{}
	if err := json.Unmarshal(respBody, &result); err != nil {
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
		}
		return nil, fmt.Errorf("parsing response: %w", err)
	}

	// The widget protocol reports failures as {"error": "..."}.
	if msg, ok := result["error"].(string); ok && msg != "" {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, msg)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	return result, nil
}

// =============================================================================
// OUTPUT HELPERS
// =============================================================================

func printRequest(method, action string, body []byte) {
	fmt.Printf("\n%s▶ REQUEST%s %s%s %s%s\n", colorYellow, colorReset, colorBold, method, action, colorReset)
	if body != nil {
		printJSON(body, "  ")
	}
}

func printResponse(status int, body []byte, duration time.Duration) {
	statusColor := colorGreen
	if status >= 400 {
		statusColor = colorRed
	}
	fmt.Printf("\n%s◀ RESPONSE%s %s%d%s (%v)\n", colorCyan, colorReset, statusColor, status, colorReset, duration)
	printJSON(body, "  ")
}

func printJSON(data []byte, prefix string) {
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, data, prefix, "  "); err != nil {
		fmt.Printf("%s%s\n", prefix, string(data))
		return
	}

	output := pretty.String()
	if !verbose {
		lines := strings.Split(output, "\n")
		if len(lines) > 30 {
			lines = append(lines[:25], fmt.Sprintf("%s  %s(%d more lines, use -v for full output)%s", prefix, colorGray, len(lines)-25, colorReset))
			output = strings.Join(lines, "\n")
		}
	}
	fmt.Println(output)
}

func printSuccess(format string, args ...interface{}) {
	if !quiet {
		fmt.Printf("%s✓ %s%s\n", colorGreen, fmt.Sprintf(format, args...), colorReset)
	}
}

func printWarning(format string, args ...interface{}) {
	fmt.Printf("%s⚠ %s%s\n", colorYellow, fmt.Sprintf(format, args...), colorReset)
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s✗ %s%s\n", colorRed, fmt.Sprintf(format, args...), colorReset)
	os.Exit(1)
}
