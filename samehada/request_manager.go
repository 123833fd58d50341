package samehada

import (
	"sync"

	"github.com/golang-collections/collections/queue"
)

type reqResult struct {
	reqId    uint64
	port     *Port
	err      error
	callerCh chan *reqResult
}

func (r *reqResult) Port() *Port { return r.port }

func (r *reqResult) Err() error { return r.err }

type queryRequest struct {
	reqId    uint64
	fn       func(sdb *SamehadaDB) (*Port, error)
	callerCh chan *reqResult
}

/**
 * RequestManager runs requests of many callers one at a time, in the
 * order they arrived, on a single goroutine. It is how the HTTP server
 * keeps the one thread of control of the engine.
 */
type RequestManager struct {
	sdb               *SamehadaDB
	nextReqId         uint64
	execQue           *queue.Queue
	queMutex          *sync.Mutex
	inCh              chan struct{}
	isExecutionActive bool
	stopped           chan struct{}
}

func NewRequestManager(sdb *SamehadaDB) *RequestManager {
	return &RequestManager{
		sdb:               sdb,
		execQue:           queue.New(),
		queMutex:          new(sync.Mutex),
		inCh:              make(chan struct{}, 100),
		isExecutionActive: true,
		stopped:           make(chan struct{}),
	}
}

// AppendRequest queues fn and returns the channel its result is sent to.
func (reqManager *RequestManager) AppendRequest(fn func(sdb *SamehadaDB) (*Port, error)) <-chan *reqResult {
	retCh := make(chan *reqResult, 1)
	reqManager.queMutex.Lock()
	reqManager.execQue.Enqueue(&queryRequest{reqManager.nextReqId, fn, retCh})
	reqManager.nextReqId++
	reqManager.queMutex.Unlock()

	// wake up execution thread
	reqManager.inCh <- struct{}{}
	return retCh
}

// Do queues fn and waits for its result.
func (reqManager *RequestManager) Do(fn func(sdb *SamehadaDB) (*Port, error)) (*Port, error) {
	result := <-reqManager.AppendRequest(fn)
	return result.port, result.err
}

// caller must having lock of queMutex
func (reqManager *RequestManager) retrieveRequest() *queryRequest {
	if reqManager.execQue.Len() == 0 {
		return nil
	}
	return reqManager.execQue.Dequeue().(*queryRequest)
}

func (reqManager *RequestManager) StartTh() {
	go reqManager.Run()
}

// StopTh finishes the queued requests and stops the execution thread.
func (reqManager *RequestManager) StopTh() {
	reqManager.queMutex.Lock()
	reqManager.isExecutionActive = false
	reqManager.queMutex.Unlock()
	reqManager.inCh <- struct{}{}
	<-reqManager.stopped
}

func (reqManager *RequestManager) Run() {
	defer close(reqManager.stopped)
	for range reqManager.inCh {
		for {
			reqManager.queMutex.Lock()
			qr := reqManager.retrieveRequest()
			active := reqManager.isExecutionActive
			reqManager.queMutex.Unlock()
			if qr == nil {
				if !active {
					return
				}
				break
			}
			port, err := qr.fn(reqManager.sdb)
			qr.callerCh <- &reqResult{qr.reqId, port, err, qr.callerCh}
		}
	}
}
