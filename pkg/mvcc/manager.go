package mvcc

import (
	"fmt"
	"sync"
	"time"
)

// ==================== 管理器配置 ====================

// Config 事务管理器配置
type Config struct {
	EnableWarning  bool          // 超过MaxActiveTxns时是否只警告而不拒绝
	AutoDowngrade  bool          // 数据源不支持MVCC时是否自动降级为非MVCC事务
	GCInterval     time.Duration // 后台GC周期（当前由调用方驱动，Manager本身不起协程）
	GCAgeThreshold time.Duration // 快照存活多久后可被GC回收
	MaxActiveTxns  int           // 活跃事务数上限，0表示不限制
}

// defaultConfig 返回默认配置
func defaultConfig() *Config {
	return &Config{
		EnableWarning:  false,
		AutoDowngrade:  true,
		GCInterval:     time.Minute,
		GCAgeThreshold: 10 * time.Minute,
		MaxActiveTxns:  0,
	}
}

// ==================== 事务管理器 ====================

// Manager 全局事务管理器，负责分配XID、维护活跃事务表和快照缓存
type Manager struct {
	mu          sync.Mutex
	config      *Config
	xid         XID
	activeTxns  map[XID]*Transaction
	snapshots   map[XID]*Snapshot
	dataSources map[string]*DataSourceFeatures
	closed      bool
}

// NewManager 创建事务管理器，cfg为nil时使用默认配置
func NewManager(cfg *Config) *Manager {
	if cfg == nil {
		cfg = defaultConfig()
	}
	return &Manager{
		config:      cfg,
		xid:         XIDBootstrap,
		activeTxns:  make(map[XID]*Transaction),
		snapshots:   make(map[XID]*Snapshot),
		dataSources: make(map[string]*DataSourceFeatures),
	}
}

var (
	globalManager     *Manager
	globalManagerOnce sync.Once
)

// GetGlobalManager 返回进程内唯一的全局Manager
func GetGlobalManager() *Manager {
	globalManagerOnce.Do(func() {
		globalManager = NewManager(nil)
	})
	return globalManager
}

// Begin 开启一个事务。非MVCC数据源得到XIDNone的降级事务
func (m *Manager) Begin(level IsolationLevel, features *DataSourceFeatures) (*Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, fmt.Errorf("mvcc: manager is closed")
	}
	if m.config.MaxActiveTxns > 0 && len(m.activeTxns) >= m.config.MaxActiveTxns && !m.config.EnableWarning {
		return nil, fmt.Errorf("mvcc: too many active transactions (max %d)", m.config.MaxActiveTxns)
	}

	mvccCapable := features != nil && features.HasMVCC()

	var xid XID
	var snapshot *Snapshot
	if mvccCapable {
		xip := make([]XID, 0, len(m.activeTxns))
		for active := range m.activeTxns {
			xip = append(xip, active)
		}
		xmin := m.xid
		for _, active := range xip {
			if active.IsBefore(xmin) {
				xmin = active
			}
		}

		xid = NextXID(m.xid)
		m.xid = xid
		snapshot = NewSnapshot(xmin, xid, xip, level)
		m.snapshots[xid] = snapshot
	} else {
		xid = XIDNone
	}

	txn := &Transaction{
		xid:       xid,
		snapshot:  snapshot,
		status:    TxnStatusInProgress,
		createdAt: time.Now(),
		startTime: time.Now(),
		manager:   m,
		level:     level,
		mvcc:      mvccCapable,
		reads:     make(map[string]bool),
		writes:    make(map[string]*TupleVersion),
		locks:     make(map[string]bool),
	}
	m.activeTxns[xid] = txn
	return txn, nil
}

// Commit 提交事务，将其从活跃表中移除
func (m *Manager) Commit(txn *Transaction) error {
	return m.finish(txn, TxnStatusCommitted)
}

// Rollback 回滚事务，将其从活跃表中移除
func (m *Manager) Rollback(txn *Transaction) error {
	return m.finish(txn, TxnStatusAborted)
}

func (m *Manager) finish(txn *Transaction, final TransactionStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if txn.GetStatus() != TxnStatusInProgress {
		return fmt.Errorf("mvcc: transaction %s not in progress", txn.XID())
	}
	txn.SetStatus(final)
	txn.SetEndTime(time.Now())
	delete(m.activeTxns, txn.XID())
	delete(m.snapshots, txn.XID())
	return nil
}

// SetTransactionStatus 强制设置事务状态，用于外部驱动的两阶段提交等场景
func (m *Manager) SetTransactionStatus(xid XID, status TransactionStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	txn, ok := m.activeTxns[xid]
	if !ok {
		return fmt.Errorf("mvcc: transaction %s not active", xid)
	}
	txn.SetStatus(status)
	if status != TxnStatusInProgress {
		txn.SetEndTime(time.Now())
		delete(m.activeTxns, xid)
		delete(m.snapshots, xid)
	}
	return nil
}

// Close 关闭管理器，幂等
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// GetStatistics 返回管理器运行状态快照，用于诊断和监控
func (m *Manager) GetStatistics() map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return map[string]interface{}{
		"current_xid":      m.xid,
		"active_txns":      len(m.activeTxns),
		"cached_snapshots": len(m.snapshots),
		"closed":           m.closed,
	}
}

// ListActiveTransactions 返回所有活跃事务的XID
func (m *Manager) ListActiveTransactions() []XID {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]XID, 0, len(m.activeTxns))
	for xid := range m.activeTxns {
		out = append(out, xid)
	}
	return out
}

// IsTransactionActive 检查事务是否仍然活跃
func (m *Manager) IsTransactionActive(xid XID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.activeTxns[xid]
	return ok
}

// GetTransaction 按XID查找活跃事务
func (m *Manager) GetTransaction(xid XID) (*Transaction, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	txn, ok := m.activeTxns[xid]
	return txn, ok
}

// GetSnapshot 按XID查找缓存的快照
func (m *Manager) GetSnapshot(xid XID) (*Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, ok := m.snapshots[xid]
	return snap, ok
}

// CurrentXID 返回最近分配的XID，不会推进计数器
func (m *Manager) CurrentXID() XID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.xid
}

// RegisterDataSource 登记一个数据源的MVCC能力
func (m *Manager) RegisterDataSource(features *DataSourceFeatures) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dataSources[features.Name] = features
}

// GetDataSource 查询已登记的数据源能力
func (m *Manager) GetDataSource(name string) (*DataSourceFeatures, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.dataSources[name]
	return f, ok
}

// GC 清理超过GCAgeThreshold的已缓存快照，与事务是否仍活跃无关
func (m *Manager) GC() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for xid, snap := range m.snapshots {
		if snap.Age() >= m.config.GCAgeThreshold {
			delete(m.snapshots, xid)
		}
	}
}
