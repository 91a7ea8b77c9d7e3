package types

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/goccy/go-json"
)

type TransactionDetail struct {
	Account  string         `json:"account"`
	Address  string         `json:"address"`
	Category string         `json:"category"`
	Amount   btcutil.Amount `json:"-"`
	Fee      btcutil.Amount `json:"-"`
}

// Transaction is the daemon's gettransaction reply. The daemon reports
// amounts in whole coins; they are held in base units.
type Transaction struct {
	TxID          string              `json:"txid"`
	Amount        btcutil.Amount      `json:"-"`
	Fee           btcutil.Amount      `json:"-"`
	Confirmations int64               `json:"confirmations"`
	BlockHash     string              `json:"blockhash"`
	BlockIndex    int64               `json:"blockindex"`
	BlockTime     int64               `json:"blocktime"`
	Time          int64               `json:"time"`
	TimeReceived  int64               `json:"timereceived"`
	Details       []TransactionDetail `json:"details"`
	Hex           string              `json:"hex"`
}

type coinAmounts struct {
	Amount float64 `json:"amount"`
	Fee    float64 `json:"fee"`
}

func (c coinAmounts) units() (amount, fee btcutil.Amount, err error) {
	if amount, err = btcutil.NewAmount(c.Amount); err != nil {
		return 0, 0, err
	}
	if fee, err = btcutil.NewAmount(c.Fee); err != nil {
		return 0, 0, err
	}
	return amount, fee, nil
}

func (d *TransactionDetail) UnmarshalJSON(data []byte) error {
	type plain TransactionDetail
	if err := json.Unmarshal(data, (*plain)(d)); err != nil {
		return err
	}
	var amounts coinAmounts
	if err := json.Unmarshal(data, &amounts); err != nil {
		return err
	}

	var err error
	d.Amount, d.Fee, err = amounts.units()
	return err
}

func (tx *Transaction) UnmarshalJSON(data []byte) error {
	type plain Transaction
	if err := json.Unmarshal(data, (*plain)(tx)); err != nil {
		return err
	}
	var amounts coinAmounts
	if err := json.Unmarshal(data, &amounts); err != nil {
		return err
	}

	var err error
	tx.Amount, tx.Fee, err = amounts.units()
	return err
}
