package net

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"binarymkt/internal/engine"
)

var (
	ErrInvalidMessageType = errors.New("invalid message type")
	ErrMessageTooShort    = errors.New("message too short for its declared type")
)

// MessageType discriminates the wire request types a client may send.
type MessageType int

const (
	Heartbeat MessageType = iota
	NewOrder
	CancelOrder
	AddMarket
	Resolve
	Deposit
)

// ReportMessageType discriminates the wire response types the server sends.
type ReportMessageType int

const (
	UpdateReport ReportMessageType = iota
	ErrorReport
)

// Message is any parsed wire request.
type Message interface {
	GetType() MessageType
}

// Message format constants. Lengths exclude the 2-byte BaseMessage prefix.
const (
	BaseMessageHeaderLen  = 2
	NewOrderMessageLen    = 4 + 4 + 2 + 1 + 1 + 4 // user + market + price + side + tif + quantity
	CancelOrderMessageLen = 4 + 8                 // user + orderID
	AddMarketMessageLen   = 4                     // market
	ResolveMessageLen     = 4 + 2                 // market + price
	DepositMessageLen     = 4 + 8                 // user + amount
)

// BaseMessage carries the common type tag every wire message starts with.
type BaseMessage struct {
	TypeOf MessageType // 2 bytes
}

func (m BaseMessage) GetType() MessageType { return m.TypeOf }

// parseMessage reads the 2-byte type tag and dispatches to the matching
// fixed-layout parser.
func parseMessage(msg []byte) (Message, error) {
	if len(msg) < BaseMessageHeaderLen {
		return nil, ErrMessageTooShort
	}
	typeOf := MessageType(binary.BigEndian.Uint16(msg[0:2]))
	body := msg[2:]
	switch typeOf {
	case NewOrder:
		return parseNewOrder(body)
	case CancelOrder:
		return parseCancelOrder(body)
	case AddMarket:
		return parseAddMarket(body)
	case Resolve:
		return parseResolve(body)
	case Deposit:
		return parseDeposit(body)
	default:
		return nil, ErrInvalidMessageType
	}
}

// NewOrderMessage submits a new order on behalf of User.
type NewOrderMessage struct {
	BaseMessage
	User     engine.UserID
	Market   engine.MarketID
	Price    engine.Price
	Side     engine.Side
	TIF      engine.TimeInForce
	Quantity engine.Quantity
}

// Request converts the wire fields into the engine's request shape.
func (m NewOrderMessage) Request() engine.OrderRequest {
	return engine.OrderRequest{Market: m.Market, Quantity: m.Quantity, Price: m.Price, Side: m.Side, TIF: m.TIF}
}

// Bytes encodes the message for transmission, including the BaseMessage tag.
func (m NewOrderMessage) Bytes() []byte {
	buf := make([]byte, BaseMessageHeaderLen+NewOrderMessageLen)
	binary.BigEndian.PutUint16(buf[0:2], uint16(NewOrder))
	binary.BigEndian.PutUint32(buf[2:6], uint32(m.User))
	binary.BigEndian.PutUint32(buf[6:10], uint32(m.Market))
	binary.BigEndian.PutUint16(buf[10:12], uint16(m.Price))
	buf[12] = byte(m.Side)
	buf[13] = byte(m.TIF)
	binary.BigEndian.PutUint32(buf[14:18], uint32(m.Quantity))
	return buf
}

func parseNewOrder(msg []byte) (NewOrderMessage, error) {
	if len(msg) < NewOrderMessageLen {
		return NewOrderMessage{}, ErrMessageTooShort
	}
	return NewOrderMessage{
		BaseMessage: BaseMessage{TypeOf: NewOrder},
		User:        engine.UserID(binary.BigEndian.Uint32(msg[0:4])),
		Market:      engine.MarketID(binary.BigEndian.Uint32(msg[4:8])),
		Price:       engine.Price(binary.BigEndian.Uint16(msg[8:10])),
		Side:        engine.Side(msg[10]),
		TIF:         engine.TimeInForce(msg[11]),
		Quantity:    engine.Quantity(binary.BigEndian.Uint32(msg[12:16])),
	}, nil
}

// CancelOrderMessage cancels an order on behalf of User.
type CancelOrderMessage struct {
	BaseMessage
	User    engine.UserID
	OrderID engine.OrderID
}

// Bytes encodes the message for transmission, including the BaseMessage tag.
func (m CancelOrderMessage) Bytes() []byte {
	buf := make([]byte, BaseMessageHeaderLen+CancelOrderMessageLen)
	binary.BigEndian.PutUint16(buf[0:2], uint16(CancelOrder))
	binary.BigEndian.PutUint32(buf[2:6], uint32(m.User))
	binary.BigEndian.PutUint64(buf[6:14], uint64(m.OrderID))
	return buf
}

func parseCancelOrder(msg []byte) (CancelOrderMessage, error) {
	if len(msg) < CancelOrderMessageLen {
		return CancelOrderMessage{}, ErrMessageTooShort
	}
	return CancelOrderMessage{
		BaseMessage: BaseMessage{TypeOf: CancelOrder},
		User:        engine.UserID(binary.BigEndian.Uint32(msg[0:4])),
		OrderID:     engine.OrderID(binary.BigEndian.Uint64(msg[4:12])),
	}, nil
}

// AddMarketMessage creates a new, empty market.
type AddMarketMessage struct {
	BaseMessage
	Market engine.MarketID
}

// Bytes encodes the message for transmission, including the BaseMessage tag.
func (m AddMarketMessage) Bytes() []byte {
	buf := make([]byte, BaseMessageHeaderLen+AddMarketMessageLen)
	binary.BigEndian.PutUint16(buf[0:2], uint16(AddMarket))
	binary.BigEndian.PutUint32(buf[2:6], uint32(m.Market))
	return buf
}

func parseAddMarket(msg []byte) (AddMarketMessage, error) {
	if len(msg) < AddMarketMessageLen {
		return AddMarketMessage{}, ErrMessageTooShort
	}
	return AddMarketMessage{
		BaseMessage: BaseMessage{TypeOf: AddMarket},
		Market:      engine.MarketID(binary.BigEndian.Uint32(msg[0:4])),
	}, nil
}

// ResolveMessage settles a market at a resolution price.
type ResolveMessage struct {
	BaseMessage
	Market engine.MarketID
	Price  engine.Price
}

// Bytes encodes the message for transmission, including the BaseMessage tag.
func (m ResolveMessage) Bytes() []byte {
	buf := make([]byte, BaseMessageHeaderLen+ResolveMessageLen)
	binary.BigEndian.PutUint16(buf[0:2], uint16(Resolve))
	binary.BigEndian.PutUint32(buf[2:6], uint32(m.Market))
	binary.BigEndian.PutUint16(buf[6:8], uint16(m.Price))
	return buf
}

func parseResolve(msg []byte) (ResolveMessage, error) {
	if len(msg) < ResolveMessageLen {
		return ResolveMessage{}, ErrMessageTooShort
	}
	return ResolveMessage{
		BaseMessage: BaseMessage{TypeOf: Resolve},
		Market:      engine.MarketID(binary.BigEndian.Uint32(msg[0:4])),
		Price:       engine.Price(binary.BigEndian.Uint16(msg[4:6])),
	}, nil
}

// DepositMessage credits a user's cash balance.
type DepositMessage struct {
	BaseMessage
	User   engine.UserID
	Amount engine.Balance
}

// Bytes encodes the message for transmission, including the BaseMessage tag.
func (m DepositMessage) Bytes() []byte {
	buf := make([]byte, BaseMessageHeaderLen+DepositMessageLen)
	binary.BigEndian.PutUint16(buf[0:2], uint16(Deposit))
	binary.BigEndian.PutUint32(buf[2:6], uint32(m.User))
	binary.BigEndian.PutUint64(buf[6:14], uint64(m.Amount))
	return buf
}

func parseDeposit(msg []byte) (DepositMessage, error) {
	if len(msg) < DepositMessageLen {
		return DepositMessage{}, ErrMessageTooShort
	}
	return DepositMessage{
		BaseMessage: BaseMessage{TypeOf: Deposit},
		User:        engine.UserID(binary.BigEndian.Uint32(msg[0:4])),
		Amount:      engine.Balance(binary.BigEndian.Uint64(msg[4:12])),
	}, nil
}

// Report is the single wire response shape sent back to a client: either an
// accepted MarketUpdate or a rejection/error string, tagged by MessageType.
type Report struct {
	MessageType ReportMessageType
	Kind        engine.MarketUpdateKind
	Timestamp   engine.Timestamp
	Tick        engine.Tick
	Market      engine.MarketID
	User        engine.UserID
	OrderID     engine.OrderID
	Quantity    engine.Quantity
	Price       engine.Price
	Amount      engine.Balance
	ErrStrLen   uint16
	Err         string
}

const reportFixedHeaderLen = 1 + 1 + 8 + 4 + 4 + 4 + 8 + 4 + 2 + 8 + 2

// updateReport builds a Report from an accepted MarketUpdate.
func updateReport(update engine.MarketUpdate) Report {
	return Report{
		MessageType: UpdateReport,
		Kind:        update.Kind,
		Timestamp:   update.Timestamp,
		Tick:        update.Tick,
		Market:      update.Market,
		User:        update.User,
		OrderID:     update.OrderID,
		Quantity:    update.Order.Quantity,
		Price:       update.Price,
		Amount:      update.Amount,
	}
}

// errorReport builds a Report carrying a rejection reason or other error.
func errorReport(err error) Report {
	msg := fmt.Sprintf("%v", err)
	return Report{MessageType: ErrorReport, ErrStrLen: uint16(len(msg)), Err: msg}
}

// Serialize packs a Report onto the wire: a fixed-width header followed by
// the variable-length error string, if any.
func (r Report) Serialize() []byte {
	buf := make([]byte, reportFixedHeaderLen+len(r.Err))
	buf[0] = byte(r.MessageType)
	buf[1] = byte(r.Kind)
	binary.BigEndian.PutUint64(buf[2:10], uint64(r.Timestamp))
	binary.BigEndian.PutUint32(buf[10:14], uint32(r.Tick))
	binary.BigEndian.PutUint32(buf[14:18], uint32(r.Market))
	binary.BigEndian.PutUint32(buf[18:22], uint32(r.User))
	binary.BigEndian.PutUint64(buf[22:30], uint64(r.OrderID))
	binary.BigEndian.PutUint32(buf[30:34], uint32(r.Quantity))
	binary.BigEndian.PutUint16(buf[34:36], uint16(r.Price))
	binary.BigEndian.PutUint64(buf[36:44], uint64(r.Amount))
	binary.BigEndian.PutUint16(buf[44:46], r.ErrStrLen)
	copy(buf[reportFixedHeaderLen:], r.Err)
	return buf
}

// ReadReport reads and decodes one Report from r, the inverse of Serialize.
func ReadReport(r io.Reader) (Report, error) {
	header := make([]byte, reportFixedHeaderLen)
	if _, err := io.ReadFull(r, header); err != nil {
		return Report{}, err
	}

	report := Report{
		MessageType: ReportMessageType(header[0]),
		Kind:        engine.MarketUpdateKind(header[1]),
		Timestamp:   engine.Timestamp(binary.BigEndian.Uint64(header[2:10])),
		Tick:        engine.Tick(binary.BigEndian.Uint32(header[10:14])),
		Market:      engine.MarketID(binary.BigEndian.Uint32(header[14:18])),
		User:        engine.UserID(binary.BigEndian.Uint32(header[18:22])),
		OrderID:     engine.OrderID(binary.BigEndian.Uint64(header[22:30])),
		Quantity:    engine.Quantity(binary.BigEndian.Uint32(header[30:34])),
		Price:       engine.Price(binary.BigEndian.Uint16(header[34:36])),
		Amount:      engine.Balance(binary.BigEndian.Uint64(header[36:44])),
		ErrStrLen:   binary.BigEndian.Uint16(header[44:46]),
	}

	if report.ErrStrLen > 0 {
		errBuf := make([]byte, report.ErrStrLen)
		if _, err := io.ReadFull(r, errBuf); err != nil {
			return Report{}, err
		}
		report.Err = string(errBuf)
	}
	return report, nil
}
