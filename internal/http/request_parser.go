package http

// This file implements decoding and validation of request bodies and query
// parameters.

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"lendx/internal/core"
	"lendx/internal/interest"
	"lendx/internal/services"
)

// requestError is a malformed request, reported as 400.
type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &requestError{msg: fmt.Sprintf(format, args...)}
}

// amountValue accepts a JSON string or number and parses it as a currency amount.
type amountValue struct {
	decimal.Decimal
}

func (a *amountValue) UnmarshalJSON(data []byte) error {
	s, err := jsonScalar(data)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrInvalidAmount, err)
	}
	d, err := core.ParseAmount(s)
	if err != nil {
		return fmt.Errorf("%w: %q", core.ErrInvalidAmount, s)
	}
	a.Decimal = d
	return nil
}

// rateValue is amountValue for weekly percentage rates, which keep full precision.
type rateValue struct {
	decimal.Decimal
}

func (v *rateValue) UnmarshalJSON(data []byte) error {
	s, err := jsonScalar(data)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrInvalidRate, err)
	}
	d, err := core.ParseRate(s)
	if err != nil {
		return fmt.Errorf("%w: %q", core.ErrInvalidRate, s)
	}
	v.Decimal = d
	return nil
}

func jsonScalar(data []byte) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return "", err
	}
	switch x := v.(type) {
	case string:
		return x, nil
	case json.Number:
		return x.String(), nil
	default:
		return "", errors.New("expected a string or number")
	}
}

type borrowerRequest struct {
	Name           *string              `json:"name"`
	InterestRate   *rateValue           `json:"interestRate"`
	InterestMethod *core.InterestMethod `json:"interestMethod"`
}

func (req borrowerRequest) input() services.BorrowerInput {
	var in services.BorrowerInput
	if req.Name != nil {
		in.Name = *req.Name
	}
	if req.InterestRate != nil {
		in.InterestRate = req.InterestRate.Decimal
	}
	if req.InterestMethod != nil {
		in.InterestMethod = *req.InterestMethod
	}
	return in
}

func (req borrowerRequest) patch() services.BorrowerPatch {
	var p services.BorrowerPatch
	p.Name = req.Name
	if req.InterestRate != nil {
		p.InterestRate = &req.InterestRate.Decimal
	}
	p.InterestMethod = req.InterestMethod
	return p
}

type transactionRequest struct {
	Date   *core.Date            `json:"date"`
	Type   *core.TransactionType `json:"type"`
	Amount *amountValue          `json:"amount"`
}

func (req transactionRequest) input() (services.TransactionInput, error) {
	if req.Date == nil {
		return services.TransactionInput{}, fmt.Errorf("%w: date is required", core.ErrInvalidDate)
	}
	if req.Type == nil {
		return services.TransactionInput{}, fmt.Errorf("%w: type is required", core.ErrInvalidType)
	}
	if req.Amount == nil {
		return services.TransactionInput{}, fmt.Errorf("%w: amount is required", core.ErrInvalidAmount)
	}
	return services.TransactionInput{
		Date:   *req.Date,
		Type:   *req.Type,
		Amount: req.Amount.Decimal,
	}, nil
}

func (req transactionRequest) patch() services.TransactionPatch {
	p := services.TransactionPatch{Date: req.Date, Type: req.Type}
	if req.Amount != nil {
		p.Amount = &req.Amount.Decimal
	}
	return p
}

// decodeJSON decodes a single JSON object from the request body. Domain
// validation errors raised while decoding fields are passed through so they
// map to 422; anything else is a 400.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		if isValidation(err) {
			return err
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return badRequest("request body too large")
		}
		if errors.Is(err, io.EOF) {
			return badRequest("request body is empty")
		}
		return badRequest("malformed JSON: %v", err)
	}
	if dec.More() {
		return badRequest("request body must contain a single JSON object")
	}
	return nil
}

// parseFilter reads the optional start and end query parameters.
func parseFilter(q url.Values) (interest.Filter, error) {
	var f interest.Filter
	var err error
	if f.Start, err = parseDateParam(q, "start"); err != nil {
		return interest.Filter{}, err
	}
	if f.End, err = parseDateParam(q, "end"); err != nil {
		return interest.Filter{}, err
	}
	if f.HasStart() && f.HasEnd() && f.End.Before(f.Start.Time) {
		return interest.Filter{}, badRequest("end %s is before start %s", f.End, f.Start)
	}
	return f, nil
}

// parseDateParam returns the zero Date when the parameter is absent.
func parseDateParam(q url.Values, name string) (core.Date, error) {
	v := strings.TrimSpace(q.Get(name))
	if v == "" {
		return core.Date{}, nil
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return core.Date{}, badRequest("invalid %s %q: expected YYYY-MM-DD", name, v)
	}
	return d, nil
}
