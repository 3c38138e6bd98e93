package exchange

import "strings"

// ============================================================
// Классификация ошибки "нет позиции для закрытия"
// ============================================================
//
// Когда закрытие второй ноги возвращает ошибку "позиция отсутствует",
// это значит что нога уже закрылась своим защитным ордером между
// детекцией и нашей попыткой закрытия. Монитор переклассифицирует
// такой случай как двойное срабатывание, а не как сбой.
//
// Сигнатуры у каждой биржи свои, поэтому список изолирован за небольшим
// интерфейсом: control flow монитора не трогается при смене формулировок
// API. Сопоставление по подстроке остаётся хрупким - заменить на
// структурированные коды, когда коннекторы смогут их отдавать.

// NoPositionClassifier определяет, означает ли ошибка закрытия
// отсутствие позиции на конкретной бирже
type NoPositionClassifier interface {
	// IsNoPosition возвращает true если текст ошибки соответствует
	// сигнатуре "нет позиции для закрытия" этой биржи
	IsNoPosition(errMsg string) bool
}

// signatureClassifier сопоставляет сообщение с набором подстрок
type signatureClassifier struct {
	signatures []string
}

func (c *signatureClassifier) IsNoPosition(errMsg string) bool {
	for _, sig := range c.signatures {
		if strings.Contains(errMsg, sig) {
			return true
		}
	}
	return false
}

// Коды ошибок "позиция отсутствует" по биржам
var noPositionSignatures = map[string][]string{
	"binance": {"-2022", "ReduceOnly Order is rejected"},
	"okx":     {"51000", "Position does not exist"},
	"bingx":   {"101205", "No position to close"},
	"bybit":   {"110017", "current position is zero"},
	"gate":    {"POSITION_EMPTY"},
}

// ClassifierRegistry хранит классификаторы по имени биржи
type ClassifierRegistry struct {
	classifiers map[string]NoPositionClassifier
}

// NewClassifierRegistry создаёт реестр со встроенными сигнатурами бирж
func NewClassifierRegistry() *ClassifierRegistry {
	r := &ClassifierRegistry{
		classifiers: make(map[string]NoPositionClassifier, len(noPositionSignatures)),
	}
	for name, sigs := range noPositionSignatures {
		r.classifiers[name] = &signatureClassifier{signatures: sigs}
	}
	return r
}

// Register добавляет или заменяет классификатор биржи
func (r *ClassifierRegistry) Register(exchange string, c NoPositionClassifier) {
	r.classifiers[strings.ToLower(exchange)] = c
}

// IsNoPositionError проверяет ошибку закрытия против сигнатур биржи.
// Неизвестная биржа всегда даёт false: лучше эскалация с ручной проверкой,
// чем ошибочное "позиции уже нет" на незнакомой площадке.
func (r *ClassifierRegistry) IsNoPositionError(exchange string, err error) bool {
	if err == nil {
		return false
	}
	c, ok := r.classifiers[strings.ToLower(exchange)]
	if !ok {
		return false
	}
	return c.IsNoPosition(err.Error())
}
