package samehada

import (
	"github.com/pingcap/errors"
	"github.com/ryogrid/SamehadaDict/common"
	"github.com/ryogrid/SamehadaDict/recovery"
	"github.com/ryogrid/SamehadaDict/storage/access"
	"go.uber.org/zap"
)

// SamehadaInstance owns the process level resources of one engine: the
// write ahead log, the transaction manager and the engine latch.
type SamehadaInstance struct {
	cfg                 *common.Config
	logger              *zap.Logger
	latch               *common.EngineLatch
	log_store           recovery.LogStore
	log_manager         *recovery.LogManager
	transaction_manager *access.TransactionManager
}

// NewSamehadaInstance opens the log described by cfg unless store is
// given, and sets up the process logger.
func NewSamehadaInstance(cfg *common.Config, store recovery.LogStore) (*SamehadaInstance, error) {
	logger, err := common.NewLogger(cfg.Log)
	if err != nil {
		return nil, errors.Annotate(err, "logger")
	}
	common.SetLogger(logger.With(zap.String("instance", cfg.Name)))
	common.ConfigureDeadlockDetection(cfg.Debug.DeadlockDetection)

	if store == nil {
		switch cfg.WAL.Mode {
		case common.WALFile:
			if store, err = recovery.OpenFileLogStore(cfg.WAL.Dir); err != nil {
				return nil, errors.Annotatef(err, "open wal in %s", cfg.WAL.Dir)
			}
		default:
			store = recovery.NewMemoryLogStore(nil)
		}
	}
	log_manager := recovery.NewLogManager(store)
	return &SamehadaInstance{
		cfg:                 cfg,
		logger:              logger,
		latch:               common.NewEngineLatch(),
		log_store:           store,
		log_manager:         log_manager,
		transaction_manager: access.NewTransactionManager(log_manager),
	}, nil
}

func (si *SamehadaInstance) GetConfig() *common.Config { return si.cfg }

func (si *SamehadaInstance) GetLogManager() *recovery.LogManager {
	return si.log_manager
}

func (si *SamehadaInstance) GetTransactionManager() *access.TransactionManager {
	return si.transaction_manager
}

func (si *SamehadaInstance) GetLatch() *common.EngineLatch {
	return si.latch
}

// Shutdown closes the log and flushes the logger.
func (si *SamehadaInstance) Shutdown() error {
	err := si.log_manager.Close()
	si.logger.Sync()
	return err
}
