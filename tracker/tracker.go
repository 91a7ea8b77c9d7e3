package tracker

import (
	"fmt"
	"sync"
	"time"

	"coin-checkpoints/common"
	"coin-checkpoints/types"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Daemon is the part of the RPC client the tracker walks the chain with.
type Daemon interface {
	GetBlockCount() (uint64, error)
	GetBlockHash(height uint64) (string, error)
	GetBlock(hash string) (*types.Block, error)
}

// Sink receives one formatted checkpoint line per block. A failed write ends
// the walk.
type Sink interface {
	Log(msg string) error
}

type Options struct {
	StartHeight  uint64
	Follow       bool
	PollInterval time.Duration
}

type Stats struct {
	StartHeight   uint64    `json:"start_height"`
	Height        uint64    `json:"height"`
	ChainHeight   uint64    `json:"chain_height"`
	TotalTx       uint64    `json:"total_transactions"`
	LastBlockHash string    `json:"last_block_hash"`
	LastBlockTime int64     `json:"last_block_time"`
	FirstTime     int64     `json:"-"`
	StartedAt     time.Time `json:"started_at"`
	Running       bool      `json:"running"`
}

type Tracker struct {
	daemon Daemon
	sink   Sink
	opts   Options

	prevTime int64
	seeded   bool

	statsLock sync.RWMutex
	stats     Stats

	reporter *common.Reporter
	loopWG   sync.WaitGroup
	quitCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
	err      error

	logger *zap.SugaredLogger
}

func New(daemon Daemon, sink Sink, opts Options) *Tracker {
	if opts.StartHeight == 0 {
		opts.StartHeight = 1
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = time.Second
	}

	return &Tracker{
		daemon: daemon,
		sink:   sink,
		opts:   opts,

		stats: Stats{StartHeight: opts.StartHeight},

		reporter: common.NewReporter(1000, 60*time.Second, func(rs common.ReporterState) string {
			return fmt.Sprintf("Tracked [%d] blocks in [%.2fs], speed [%sblocks/sec]", rs.CountInc, rs.ElapsedTime, common.FormatSpeed(rs))
		}),
		quitCh: make(chan struct{}),
		doneCh: make(chan struct{}),

		logger: zap.S().Named("[tracker]"),
	}
}

func (t *Tracker) Start() {
	t.loopWG.Add(1)
	go t.loop()

	t.logger.Info("Tracker started")
}

// Stop asks the walk to end after the current height and waits for it.
func (t *Tracker) Stop() {
	t.stopOnce.Do(func() {
		close(t.quitCh)
	})
	t.loopWG.Wait()
}

// Done is closed once the walk has ended, for whatever reason.
func (t *Tracker) Done() <-chan struct{} {
	return t.doneCh
}

// Err is the error that ended the walk, valid after Done is closed.
func (t *Tracker) Err() error {
	return t.err
}

func (t *Tracker) loop() {
	defer t.loopWG.Done()
	defer close(t.doneCh)

	t.err = t.Run()
	if t.err != nil {
		t.logger.Errorf("Tracker stopped on error: %v", t.err)
	}
}

// Run walks the chain from the start height to the tip, logging one line
// per block. It returns on the first RPC or checkpoint write failure.
func (t *Tracker) Run() error {
	chainHeight, err := t.daemon.GetBlockCount()
	if err != nil {
		return err
	}
	t.updateStats(func(s *Stats) {
		s.ChainHeight = chainHeight
		s.StartedAt = time.Now()
		s.Running = true
	})
	defer t.updateStats(func(s *Stats) {
		s.Running = false
	})
	defer func() {
		rs := t.reporter.Finish()
		t.logger.Infof("Tracked [%s] blocks in [%.2fs], speed [%sblocks/sec]",
			common.FormatCount(rs.Count), rs.ElapsedTime, common.FormatSpeed(rs))
	}()

	t.logger.Infof("Start tracking blocks [%d] => [%d]", t.opts.StartHeight, chainHeight)

	for height := t.opts.StartHeight; ; height++ {
		for height > chainHeight {
			if !t.opts.Follow {
				t.logger.Infof("Reached chain tip [%d]", chainHeight)
				return nil
			}
			select {
			case <-t.quitCh:
				return nil
			case <-time.After(t.opts.PollInterval):
			}
			if chainHeight, err = t.daemon.GetBlockCount(); err != nil {
				return err
			}
			t.updateStats(func(s *Stats) {
				s.ChainHeight = chainHeight
			})
		}

		select {
		case <-t.quitCh:
			t.logger.Infof("Tracker quit at block [%d]", height)
			return nil
		default:
		}

		if err := t.trackBlock(height); err != nil {
			return err
		}

		if shouldReport, reportContent := t.reporter.Add(1); shouldReport {
			stats := t.Stats()
			t.logger.Infof("%s, tracking progress [%d] => [%d], left blocks [%d]",
				reportContent, stats.Height, stats.ChainHeight, stats.ChainHeight-stats.Height)
		}
	}
}

func (t *Tracker) trackBlock(height uint64) error {
	hash, err := t.daemon.GetBlockHash(height)
	if err != nil {
		return errors.WithMessagef(err, "block [%d]", height)
	}

	if !t.seeded {
		if err := t.seedPrevTime(height); err != nil {
			return err
		}
	}

	block, err := t.daemon.GetBlock(hash)
	if err != nil {
		return errors.WithMessagef(err, "block [%d]", height)
	}

	age := block.Time - t.prevTime
	numTx := block.TxCount()

	var total uint64
	t.updateStats(func(s *Stats) {
		s.TotalTx += numTx
		s.Height = height
		s.LastBlockHash = hash
		s.LastBlockTime = block.Time
		if height == t.opts.StartHeight {
			s.FirstTime = block.Time
		}
		total = s.TotalTx
	})

	if err := t.sink.Log(FormatLine(height, age, numTx, total)); err != nil {
		return errors.WithMessagef(err, "block [%d]", height)
	}
	t.prevTime = block.Time
	return nil
}

// seedPrevTime takes the previous timestamp from the block before the first
// tracked one, so the first age is a real inter-block time.
func (t *Tracker) seedPrevTime(height uint64) error {
	t.seeded = true

	hash, err := t.daemon.GetBlockHash(height - 1)
	if err != nil {
		return errors.WithMessagef(err, "seed block [%d]", height-1)
	}
	block, err := t.daemon.GetBlock(hash)
	if err != nil {
		return errors.WithMessagef(err, "seed block [%d]", height-1)
	}
	t.prevTime = block.Time
	return nil
}

func (t *Tracker) Stats() Stats {
	t.statsLock.RLock()
	defer t.statsLock.RUnlock()
	return t.stats
}

func (t *Tracker) Report() {
	stats := t.Stats()
	if !stats.Running {
		return
	}
	t.logger.Infof("Status report, latest tracked block [%d](%s), chain height [%d], total transactions [%s]",
		stats.Height,
		time.Unix(stats.LastBlockTime, 0).Format("2006-01-02 15:04:05"),
		stats.ChainHeight,
		common.FormatCount(stats.TotalTx))
}

func (t *Tracker) updateStats(update func(s *Stats)) {
	t.statsLock.Lock()
	defer t.statsLock.Unlock()
	update(&t.stats)
}

func FormatLine(height uint64, age int64, numTx, total uint64) string {
	return fmt.Sprintf("%d\t%d seconds, %d transactions (culm. %d)", height, age, numTx, total)
}
