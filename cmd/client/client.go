package main

import (
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"strings"

	"binarymkt/internal/engine"
	binarymktNet "binarymkt/internal/net"
)

func main() {
	serverAddr := flag.String("server", "127.0.0.1:9001", "address of the exchange server")
	action := flag.String("action", "place", "action to perform: place, cancel, add-market, resolve, deposit")

	user := flag.Uint("user", 0, "user id")
	market := flag.Uint("market", 1, "market id")
	sideStr := flag.String("side", "buy", "order side: buy or sell")
	tifStr := flag.String("tif", "gtc", "time in force: gtc, ioc or post")
	price := flag.Uint("price", 5000, "price in basis points, 0-10000")
	qty := flag.Uint("qty", 10, "order quantity")
	orderID := flag.Uint64("order", 0, "order id to cancel")
	amount := flag.Uint64("amount", 0, "amount to deposit, in basis points")

	flag.Parse()

	conn, err := net.Dial("tcp", *serverAddr)
	if err != nil {
		log.Fatalf("failed to connect to server at %s: %v", *serverAddr, err)
	}
	defer conn.Close()
	fmt.Printf("connected to %s as user %d\n", *serverAddr, *user)

	go readReports(conn)

	var out []byte
	switch strings.ToLower(*action) {
	case "place":
		out = binarymktNet.NewOrderMessage{
			User:     engine.UserID(*user),
			Market:   engine.MarketID(*market),
			Price:    engine.Price(*price),
			Side:     parseSide(*sideStr),
			TIF:      parseTIF(*tifStr),
			Quantity: engine.Quantity(*qty),
		}.Bytes()
	case "cancel":
		out = binarymktNet.CancelOrderMessage{
			User:    engine.UserID(*user),
			OrderID: engine.OrderID(*orderID),
		}.Bytes()
	case "add-market":
		out = binarymktNet.AddMarketMessage{Market: engine.MarketID(*market)}.Bytes()
	case "resolve":
		out = binarymktNet.ResolveMessage{
			Market: engine.MarketID(*market),
			Price:  engine.Price(*price),
		}.Bytes()
	case "deposit":
		out = binarymktNet.DepositMessage{
			User:   engine.UserID(*user),
			Amount: engine.Balance(*amount),
		}.Bytes()
	default:
		log.Fatalf("unknown action: %s", *action)
	}

	if _, err := conn.Write(out); err != nil {
		log.Fatalf("failed to send request: %v", err)
	}
	fmt.Printf("-> sent %s\n", *action)

	fmt.Println("listening for reports... (press ctrl+C to exit)")
	select {}
}

func parseSide(s string) engine.Side {
	if strings.ToLower(s) == "sell" {
		return engine.Sell
	}
	return engine.Buy
}

func parseTIF(s string) engine.TimeInForce {
	switch strings.ToLower(s) {
	case "ioc":
		return engine.IOC
	case "post":
		return engine.POST
	default:
		return engine.GTC
	}
}

// readReports continuously reads and prints Report messages from the server.
func readReports(conn net.Conn) {
	for {
		report, err := binarymktNet.ReadReport(conn)
		if err != nil {
			fmt.Printf("connection lost: %v\n", err)
			os.Exit(0)
		}

		if report.MessageType == binarymktNet.ErrorReport {
			fmt.Printf("\n[error] %s\n", report.Err)
			continue
		}

		fmt.Printf("\n[update] kind=%d tick=%d market=%d user=%d order=%d qty=%d price=%d amount=%d\n",
			report.Kind, report.Tick, report.Market, report.User, report.OrderID,
			report.Quantity, report.Price, report.Amount)
	}
}
