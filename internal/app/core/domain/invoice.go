package domain

import (
	"github.com/google/uuid"
)

// invoiceTokenLength 發票號碼隨機段長度 (hex 字元)
const invoiceTokenLength = 8

// NewInvoiceNumber 產生 "<PREFIX>-<8 位 hex>" 格式的發票號碼
// 取 UUIDv4 字串的前 8 個字元，不做全域去重，碰撞由資料庫唯一索引擋下
func NewInvoiceNumber(kind TransactionKind) string {
	return kind.InvoicePrefix() + "-" + uuid.NewString()[:invoiceTokenLength]
}
