package recovery

import (
	"bytes"
	"io"

	"github.com/pingcap/errors"
	"github.com/ryogrid/SamehadaDict/common"
	"github.com/ryogrid/SamehadaDict/storage/access"
	"github.com/vmihailenco/msgpack/v5"
)

/**
 * LogManager appends one record per committed transaction to a LogStore.
 *
 * A record is a msgpack array:
 *   [txn_id, [[space_id, op, tuple], ...]]
 * where tuple is the stored (new) tuple for inserts and updates and the
 * removed tuple for deletes.
 */
type LogManager struct {
	store      LogStore
	next_lsn   uint64
	inject_err error
}

func NewLogManager(store LogStore) *LogManager {
	return &LogManager{store: store}
}

func (log_manager *LogManager) GetNextLSN() uint64 { return log_manager.next_lsn }

func (log_manager *LogManager) IsEmpty() bool { return log_manager.store.Size() == 0 }

// InjectWriteError makes every following append fail with err. nil
// restores normal operation.
func (log_manager *LogManager) InjectWriteError(err error) {
	log_manager.inject_err = err
}

func encodeTxn(txn_id access.TxnID, records []access.LogRecord) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.UseCompactInts(true)
	if err := enc.EncodeArrayLen(2); err != nil {
		return nil, err
	}
	if err := enc.EncodeUint(uint64(txn_id)); err != nil {
		return nil, err
	}
	if err := enc.EncodeArrayLen(len(records)); err != nil {
		return nil, err
	}
	for _, rec := range records {
		if err := enc.EncodeArrayLen(3); err != nil {
			return nil, err
		}
		if err := enc.EncodeUint(uint64(rec.SpaceID)); err != nil {
			return nil, err
		}
		if err := enc.EncodeUint(uint64(rec.Op)); err != nil {
			return nil, err
		}
		if err := enc.Encode(msgpack.RawMessage(rec.Tuple)); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func decodeTxn(dec *msgpack.Decoder) (access.TxnID, []access.LogRecord, error) {
	n, err := dec.DecodeArrayLen()
	if err != nil {
		return 0, nil, err
	}
	if n != 2 {
		return 0, nil, errors.Errorf("bad log record: %d elements", n)
	}
	txn_id, err := dec.DecodeUint64()
	if err != nil {
		return 0, nil, err
	}
	count, err := dec.DecodeArrayLen()
	if err != nil {
		return 0, nil, err
	}
	records := make([]access.LogRecord, 0, count)
	for i := 0; i < count; i++ {
		if n, err = dec.DecodeArrayLen(); err != nil {
			return 0, nil, err
		}
		if n != 3 {
			return 0, nil, errors.Errorf("bad change record: %d elements", n)
		}
		space_id, err := dec.DecodeUint32()
		if err != nil {
			return 0, nil, err
		}
		op, err := dec.DecodeUint64()
		if err != nil {
			return 0, nil, err
		}
		raw, err := dec.DecodeRaw()
		if err != nil {
			return 0, nil, err
		}
		records = append(records, access.LogRecord{SpaceID: space_id, Op: access.WType(op), Tuple: []byte(raw)})
	}
	return access.TxnID(txn_id), records, nil
}

// AppendTxn implements access.LogWriter.
func (log_manager *LogManager) AppendTxn(txn_id access.TxnID, records []access.LogRecord) error {
	if log_manager.inject_err != nil {
		return log_manager.inject_err
	}
	data, err := encodeTxn(txn_id, records)
	if err != nil {
		return errors.Trace(err)
	}
	if err := log_manager.store.Append(data); err != nil {
		return errors.Trace(err)
	}
	if err := log_manager.store.Sync(); err != nil {
		return errors.Trace(err)
	}
	log_manager.next_lsn++
	return nil
}

// Replay hands every logged transaction to fn in log order. A torn
// record at the end of the log is skipped with a warning.
func (log_manager *LogManager) Replay(fn func(txn_id access.TxnID, records []access.LogRecord) error) error {
	size := log_manager.store.Size()
	if size == 0 {
		return nil
	}
	buf := make([]byte, size)
	if _, err := log_manager.store.ReadAt(buf, 0); err != nil && err != io.EOF {
		return errors.Trace(err)
	}
	reader := bytes.NewReader(buf)
	dec := msgpack.NewDecoder(reader)
	for reader.Len() > 0 {
		txn_id, records, err := decodeTxn(dec)
		if err != nil {
			if errors.Cause(err) == io.EOF || errors.Cause(err) == io.ErrUnexpectedEOF {
				common.ShPrintf(common.WARN, "skipping torn log record at the end of the log")
				break
			}
			return errors.Annotate(err, "log replay")
		}
		if err := fn(txn_id, records); err != nil {
			return err
		}
		log_manager.next_lsn++
	}
	common.ShPrintf(common.INFO, "replayed %d log records", log_manager.next_lsn)
	return nil
}

func (log_manager *LogManager) Close() error {
	return log_manager.store.Close()
}
