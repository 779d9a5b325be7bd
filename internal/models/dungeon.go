package models

import (
	"fmt"
)

// 地牢结构常量，房间数量固定
const (
	RoomCount = 5
	FinalRoom = RoomCount
)

// Door 门的选择
type Door string

const (
	DoorLeft  Door = "left"
	DoorRight Door = "right"

	// DoorSubmit 第五个房间的提交动作，沿用 right 写入
	DoorSubmit = DoorRight
)

// Valid 是否为合法的门
func (d Door) Valid() bool {
	return d == DoorLeft || d == DoorRight
}

// Room 房间模型
type Room struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:50;index;not null" json:"name"` // 约定唯一，由初始化保证
	Description string `gorm:"size:255" json:"description"`
}

// TableName 指定表名
func (Room) TableName() string {
	return "rooms"
}

// LootItem 战利品模型
type LootItem struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:100;uniqueIndex;not null" json:"name"`
}

// TableName 指定表名
func (LootItem) TableName() string {
	return "loot_items"
}

// RunEntry 一次运行中某个房间的记录，写入后不再修改
type RunEntry struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	RunDate string `gorm:"type:text;not null" json:"run_date"`
	RoomID  uint   `gorm:"not null;index" json:"room_id"`
	Door    Door   `gorm:"type:text;not null" json:"door"`
	LootID  *uint  `json:"loot_id,omitempty"`

	// 关联
	Room *Room     `gorm:"foreignKey:RoomID" json:"room,omitempty"`
	Loot *LootItem `gorm:"foreignKey:LootID" json:"loot,omitempty"`
}

// TableName 指定表名
func (RunEntry) TableName() string {
	return "runs"
}

// PendingChoice 尚未提交的房间选择（仅在内存中）
type PendingChoice struct {
	RunDate    string `json:"run_date"`
	RoomNumber int    `json:"room_number"`
	Door       Door   `json:"door"`
	LootName   string `json:"loot_name,omitempty"`
}

// DoorCounts 某个房间各扇门的选择次数
type DoorCounts struct {
	Left  int64 `json:"left"`
	Right int64 `json:"right"`
}

// Total 总访问次数
func (c DoorCounts) Total() int64 {
	return c.Left + c.Right
}

// RoomName 房间编号对应的名称
func RoomName(number int) string {
	return fmt.Sprintf("Room %d", number)
}

// DefaultRooms 固定的五个房间
func DefaultRooms() []Room {
	descriptions := []string{
		"The first room of the dungeon.",
		"The second room of the dungeon.",
		"The third room of the dungeon.",
		"The fourth room of the dungeon.",
		"The final room of the dungeon.",
	}

	rooms := make([]Room, 0, RoomCount)
	for i, desc := range descriptions {
		rooms = append(rooms, Room{Name: RoomName(i + 1), Description: desc})
	}
	return rooms
}
