package models

// Location is a static catalog entry referenced by deductions and lost items.
type Location struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// BehaviorRule is a static catalog entry describing a scored behaviour.
type BehaviorRule struct {
	ID       string `db:"id" json:"id"`
	Category string `db:"category" json:"category"`
	Behavior string `db:"behavior" json:"behavior"`
	Points   int    `db:"points" json:"points"`
}

// IncidentCategory enumerates SOS incident types. Values are the display
// labels the school uses, kept verbatim.
type IncidentCategory string

const (
	IncidentAccident    IncidentCategory = "อุบัติเหตุ / ต้องการปฐมพยาบาล"
	IncidentBullying    IncidentCategory = "การกลั่นแกล้ง / Bullying"
	IncidentConflict    IncidentCategory = "การทะเลาะวิวาท"
	IncidentViolation   IncidentCategory = "พบเห็นการทำผิดกฎ (เช่น สูบบุหรี่)"
	IncidentMaintenance IncidentCategory = "พื้นที่/อุปกรณ์ชำรุด"
	IncidentOther       IncidentCategory = "เรื่องด่วนอื่นๆ"
)

// IncidentCategories returns all known incident categories in display order.
func IncidentCategories() []IncidentCategory {
	return []IncidentCategory{
		IncidentAccident,
		IncidentBullying,
		IncidentConflict,
		IncidentViolation,
		IncidentMaintenance,
		IncidentOther,
	}
}

// Valid reports whether the category is one of the known incident types.
func (c IncidentCategory) Valid() bool {
	for _, known := range IncidentCategories() {
		if c == known {
			return true
		}
	}
	return false
}

// ItemCategories lists the lost & found item categories in display order.
func ItemCategories() []string {
	return []string{
		"กระเป๋า / ถุง",
		"อุปกรณ์อิเล็กทรอนิกส์",
		"เครื่องเขียน",
		"หนังสือ / สมุด",
		"เสื้อผ้า / ชุดพละ",
		"กุญแจ / ของใช้ส่วนตัว",
		"กระเป๋าสตางค์",
	}
}
