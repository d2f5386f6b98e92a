package fake

// Operation names recorded in the store's oplog.Log. Reads through a
// reference or query record OpGet; reads through a transaction record
// OpTransactionGet instead.
const (
	OpCollection      = "collection"
	OpCollectionGroup = "collectionGroup"
	OpDoc             = "doc"
	OpGet             = "get"
	OpGetAll          = "getAll"
	OpAdd             = "add"
	OpCreate          = "create"
	OpSet             = "set"
	OpUpdate          = "update"
	OpDelete          = "delete"
	OpListDocuments   = "listDocuments"
	OpListCollections = "listCollections"
	OpOnSnapshot      = "onSnapshot"
	OpUnsubscribe     = "unsubscribe"
	OpWithConverter   = "withConverter"

	OpWhere             = "where"
	OpSelect            = "select"
	OpLimit             = "limit"
	OpOffset            = "offset"
	OpOrderBy           = "orderBy"
	OpStartAt           = "startAt"
	OpStartAfter        = "startAfter"
	OpQueryOnSnapshot   = "query.onSnapshot"
	OpQueryUnsubscribe  = "query.unsubscribe"
	OpRecursiveDelete   = "recursiveDelete"
	OpSettings          = "settings"
	OpUseEmulator       = "useEmulator"
	OpBatch             = "batch"
	OpBatchSet          = "batch.set"
	OpBatchCreate       = "batch.create"
	OpBatchUpdate       = "batch.update"
	OpBatchDelete       = "batch.delete"
	OpBatchCommit       = "batch.commit"
	OpRunTransaction    = "runTransaction"
	OpTransactionGet    = "transaction.get"
	OpTransactionGetAll = "transaction.getAll"
	OpTransactionSet    = "transaction.set"
	OpTransactionUpdate = "transaction.update"
	OpTransactionDelete = "transaction.delete"
	OpTransactionCreate = "transaction.create"
)
