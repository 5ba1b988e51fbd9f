package model

import (
	"fmt"
	"time"
	"unicode/utf8"
)

type OrderEventKind string

const (
	OrderEventStatusChange OrderEventKind = "STATUS_CHANGE"
	OrderEventNote         OrderEventKind = "NOTE"
)

// メッセージの最大文字数（rune数）
const OrderEventMessageMaxLen = 500

func (k OrderEventKind) Valid() bool {
	return k == OrderEventStatusChange || k == OrderEventNote
}

// EventMetaは種類ごとに中身が違うのでスキーマを持たないJSONオブジェクトで保存する。
type EventMeta map[string]any

// 注文の監査ログ。作成後は更新・削除しない。
type OrderEvent struct {
	ID        int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   int64          `gorm:"not null;index:idx_order_events_timeline,priority:1" json:"order_id"`
	Kind      OrderEventKind `gorm:"type:varchar(20);not null" json:"kind"`
	Message   string         `gorm:"type:varchar(500);not null" json:"message"`
	Meta      EventMeta      `gorm:"type:jsonb;serializer:json" json:"meta"`
	CreatedAt time.Time      `gorm:"not null;index:idx_order_events_timeline,priority:2" json:"created_at"`
}

// STATUS_CHANGE用のmeta
func StatusChangeMeta(from, to OrderStatus, actor Actor, reason string) EventMeta {
	m := EventMeta{
		"from":      string(from),
		"to":        string(to),
		"actorId":   actor.UserID,
		"actorRole": string(actor.Role),
	}
	if reason != "" {
		m["reason"] = reason
	}
	return m
}

// NOTE用のmeta
func NoteMeta(authorID int64) EventMeta {
	return EventMeta{"authorId": authorID}
}

func StatusChangeMessage(from, to OrderStatus) string {
	return fmt.Sprintf("%s -> %s", from, to)
}

// rune単位で切り詰める（マルチバイトを途中で切らない）
func TruncateEventMessage(msg string) string {
	if utf8.RuneCountInString(msg) <= OrderEventMessageMaxLen {
		return msg
	}
	runes := []rune(msg)
	return string(runes[:OrderEventMessageMaxLen])
}

// Clone は呼び出し側の変更が保存済みイベントへ漏れないようにコピーする。
func (m EventMeta) Clone() EventMeta {
	if m == nil {
		return EventMeta{}
	}
	out := make(EventMeta, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (e OrderEvent) Clone() OrderEvent {
	e.Meta = e.Meta.Clone()
	return e
}
