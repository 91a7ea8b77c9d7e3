package types

import "time"

// Block is the subset of the daemon's getblock reply the tracker consumes.
type Block struct {
	Hash              string   `json:"hash"`
	Height            uint64   `json:"height"`
	Time              int64    `json:"time"`
	Tx                []string `json:"tx"`
	Size              uint64   `json:"size"`
	Version           int32    `json:"version"`
	MerkleRoot        string   `json:"merkleroot"`
	Bits              string   `json:"bits"`
	Nonce             uint64   `json:"nonce"`
	Difficulty        float64  `json:"difficulty"`
	Confirmations     int64    `json:"confirmations"`
	PreviousBlockHash string   `json:"previousblockhash"`
	NextBlockHash     string   `json:"nextblockhash"`
}

func (b *Block) TxCount() uint64 {
	return uint64(len(b.Tx))
}

func (b *Block) Timestamp() time.Time {
	return time.Unix(b.Time, 0)
}
