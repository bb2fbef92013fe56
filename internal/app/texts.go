package app

const (
	textWelcome = "Привет! 👋 Я — твой личный тревел-ассистент в Telegram.\n" +
		"Вот что я умею:\n\n" +
		"✈️ Помогаю подобрать лучшие туры по твоим пожеланиям\n" +
		"📅 Напоминаю о важных вещах перед поездкой — от документов до багажа\n" +
		"📝 Создаю персональные чек-листы и сохраняю заметки\n" +
		"🌍 Рассказываю про визы, погоду и курсы валют в нужной стране\n" +
		"🎯 Помогаю организовать весь процесс путешествия — от выбора до возвращения домой\n\n" +
		"Напиши, куда хочешь поехать, или задай вопрос — я помогу сделать твой отпуск проще и приятнее!"

	textDenied      = "Извините, у вас нет доступа к этому боту. 🚫\n\nОбратитесь к администратору, если считаете, что это ошибка."
	textRateLimited = "Вы отправляете сообщения слишком быстро. Подождите немного. ⏰"
	textNonText     = "Я понимаю только текстовые сообщения. Напишите, пожалуйста, текстом. ✍️"
	textAdminOnly   = "Эта команда доступна только администратору."
)

// commandPrompt is a bot command answered by the completion service.
type commandPrompt struct {
	Name        string
	Description string
	Prompt      string
}

var commandPrompts = []commandPrompt{
	{
		Name:        "/help",
		Description: "Что умеет бот",
		Prompt:      "Пользователь просит помощь с командами бота. Расскажи о всех доступных командах и возможностях тревел-ассистента.",
	},
	{
		Name:        "/tours",
		Description: "Подобрать тур",
		Prompt:      "Пользователь хочет подобрать туры. Спроси у него предпочтения: бюджет, направление, тип отдыха, количество людей.",
	},
	{
		Name:        "/checklist",
		Description: "Чек-лист для поездки",
		Prompt:      "Пользователь хочет создать чек-лист для поездки. Спроси направление и тип поездки, чтобы создать персональный список.",
	},
	{
		Name:        "/visa",
		Description: "Информация о визах",
		Prompt:      "Пользователь спрашивает о визах. Спроси в какую страну он планирует поехать и из какой страны.",
	},
	{
		Name:        "/weather",
		Description: "Погода в стране или городе",
		Prompt:      "Пользователь хочет узнать погоду. Спроси в каком городе или стране его интересует погода.",
	},
}
