package bot

import "fmt"

const (
	confirmDeleteButton = "Да, удалить всё"

	textStart = "Привет. Это твой дневник — место, где можно быть собой.\n\n" +
		"Каждое утро я буду присылать тебе тихую аффирмацию. " +
		"А в любое время ты можешь написать сюда всё, что живёт внутри.\n\n" +
		"Перед началом — пожалуйста, ознакомься с нашим " +
		"<a href='https://luminarywear.ru/journal/terms.html'>пользовательским соглашением</a>.\n\n" +
		"Если ты согласен(а) — напиши «Да»."

	textAgreed = "Спасибо. 💛\n\n" +
		"А теперь — как мне к тебе обращаться?\n" +
		"Напиши имя, в котором ты чувствуешь себя собой.\n\n" +
		"Например: <b>Аня, Леша, Марина</b>…\n" +
		"Или просто скажи «без имени» — и я буду писать так, будто мы с тобой наедине, но без слов."

	textPrivacy = "<b>Политика конфиденциальности</b>\n\n" +
		"• Собираем: Telegram ID, записи, мягкое имя (если дал).\n" +
		"• Не делимся, не продаём, не анализируем.\n" +
		"• Хочешь удалить всё? Напиши /delete_all.\n\n" +
		"Полная версия: https://luminarywear.ru/journal/privacy.html"

	textDeleteConfirm = "Ты хочешь удалить все свои записи из дневника?\n\n" +
		"Это действие нельзя отменить. Твои слова исчезнут навсегда.\n\n" +
		"Если ты уверен(а) — нажми кнопку ниже."

	textDeleted = "Все твои записи удалены. 💫\n\n" +
		"Если захочешь начать заново — просто напиши сюда.\n" +
		"Дневник всегда открыт."

	textEntrySaved     = "Записано. ✨"
	textPaymentThanks  = "Спасибо за доверие. 💛\n\nДневник — твой."
	textNeedsStart     = "Чтобы начать, напиши /start."
	textNeedsAgreement = "Чтобы продолжить, прими пользовательское соглашение: напиши «Да».\nТекст соглашения: /terms"
	textAccessDenied   = "Пробный период закончился. 🌙\n\nЧтобы продолжить вести дневник, оформи подписку: /subscribe"
	textUnknownCommand = "Я знаю команды /terms, /privacy, /subscribe и /delete_all."
	textFailure        = "Что-то пошло не так. Попробуй, пожалуйста, чуть позже."

	invoiceTitle       = "Luminary Journal — подписка"
	invoiceDescription = "Доступ к дневнику на месяц или год. Все записи сохраняются навсегда."
	invoicePayload     = "journal_sub"
)

func termsText(trialDays int) string {
	return "<b>Пользовательское соглашение</b>\n\n" +
		"• Возраст: от 14 лет (без согласия родителей).\n" +
		"• Это твоё пространство — записи принадлежат только тебе.\n" +
		"• Мы не удаляем данные автоматически.\n" +
		"• Приватность: никаких email, телефона, геолокации.\n" +
		fmt.Sprintf("• Подписка: %d дней бесплатно, потом — по желанию.\n\n", trialDays) +
		"Полная версия: https://luminarywear.ru/journal/terms.html"
}

func softNameText(prefix string) string {
	return prefix + "дневник открыт. 🌿\n\n" +
		"Пиши сюда всё, что живёт внутри — в любое время.\n" +
		"А завтра утром тебя ждёт первая аффирмация."
}
