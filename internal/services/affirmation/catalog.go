// Package affirmation генерирует короткие аффирмации из трёх частей и следит,
// чтобы пользователь не получал одну и ту же аффирмацию в пределах окна.
package affirmation

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Catalog наборы частей аффирмации. Окончание начинается со своей пунктуации.
type Catalog struct {
	Openings []string `yaml:"openings"`
	Cores    []string `yaml:"cores"`
	Endings  []string `yaml:"endings"`
}

// Size возвращает число различных комбинаций.
func (c Catalog) Size() int {
	return len(c.Openings) * len(c.Cores) * len(c.Endings)
}

// Validate проверяет, что каждый набор непуст.
func (c Catalog) Validate() error {
	if len(c.Openings) == 0 || len(c.Cores) == 0 || len(c.Endings) == 0 {
		return errors.New("catalog: openings, cores and endings must be non-empty")
	}
	return nil
}

// LoadCatalog читает каталог из YAML-файла.
func LoadCatalog(path string) (Catalog, error) {
	const op = "affirmation.LoadCatalog"
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("%s: %w", op, err)
	}
	var c Catalog
	if err = yaml.Unmarshal(data, &c); err != nil {
		return Catalog{}, fmt.Errorf("%s: %w", op, err)
	}
	if err = c.Validate(); err != nil {
		return Catalog{}, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

// DefaultCatalog возвращает встроенный каталог: 10 × 16 × 16 = 2560 комбинаций.
func DefaultCatalog() Catalog {
	return Catalog{
		Openings: []string{
			"сегодня тебе не нужно",
			"ты имеешь право на",
			"иногда достаточно просто",
			"в этот день можно позволить себе",
			"твоя внутренняя",
			"даже если кажется иначе —",
			"ты не обязан(а)",
			"пусть сегодня будет",
			"всё, что нужно сейчас —",
			"ты можешь отпустить",
		},
		Cores: []string{
			"ничего доказывать",
			"медленный день",
			"подышать",
			"быть мягким(ой)",
			"тишина — самый честный ответ",
			"усталость — часть пути",
			"свет уже есть в тебе",
			"просто быть",
			"отпустить всё",
			"довериться моменту",
			"ничего не менять",
			"остаться с собой",
			"чувствовать землю под ногами",
			"ждать без цели",
			"слушать своё дыхание",
			"не знать ответа",
		},
		Endings: []string{
			". Просто будь. 🌿",
			". Это уже достаточно. ✨",
			". Отдохни. 🌙",
			". Ты здесь — и этого хватит. 🤍",
			". Доверься себе. 💚",
			". Пусть будет так. 🌱",
			". Ты цел(а). 💛",
			". Всё в порядке. 🌸",
			". Ты растёшь. 🌷",
			". Дыши. 💙",
			". Ты светишь. ⚡️",
			". Всё проходит. 🍀",
			". Ты любим(а). 💘",
			". Сердце знает. ❤️",
			". Путь мягкий. ☘️",
			". Время твоё. 🌾",
		},
	}
}
