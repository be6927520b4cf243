package utils

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
)

// EncodeEvent 将事件编码为带类型前缀的二进制数据：
// - 前 4 字节为事件类型（uint32，小端序）
// - 后续为 JSON 序列化数据
// 消费端先读类型前缀再按类型反序列化 payload。
func EncodeEvent(eventType uint32, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("EncodeEvent: marshal %T: %w", payload, err)
	}

	buf := make([]byte, 4, 4+len(body))
	binary.LittleEndian.PutUint32(buf[:4], eventType)
	return append(buf, body...), nil
}

// DecodeEventType 读取编码数据的类型前缀，并返回 payload 部分
func DecodeEventType(data []byte) (uint32, []byte, error) {
	if len(data) < 4 {
		return 0, nil, fmt.Errorf("DecodeEventType: data too short: %d", len(data))
	}
	return binary.LittleEndian.Uint32(data[:4]), data[4:], nil
}
