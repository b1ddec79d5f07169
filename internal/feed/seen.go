package feed

// SeenSet хранит идентификаторы заказов, о которых уже было оповещение
// в рамках одной подписки. Принадлежит одной горутине подписчика.
type SeenSet struct {
	ids map[string]struct{}
}

// NewSeenSet создаёт пустое множество.
func NewSeenSet() *SeenSet {
	return &SeenSet{ids: make(map[string]struct{})}
}

// Contains сообщает, встречался ли id.
func (s *SeenSet) Contains(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Insert добавляет id и возвращает true, если его ещё не было.
func (s *SeenSet) Insert(id string) bool {
	if _, ok := s.ids[id]; ok {
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

// Len возвращает размер множества.
func (s *SeenSet) Len() int {
	return len(s.ids)
}
