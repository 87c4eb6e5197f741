// Package i18n holds the static translation table for conversational
// replies. Unknown languages and missing keys fall back to English.
package i18n

import "fmt"

// Default is the fallback language
const Default = "en"

// Languages lists the selectable language codes with display names
var Languages = []struct {
	Code string
	Name string
}{
	{"en", "🇬🇧 English"},
	{"vi", "🇻🇳 Tiếng Việt"},
	{"hi", "🇮🇳 हिंदी"},
	{"pt", "🇵🇹 Português"},
	{"zh-cn", "🇨🇳 简体中文"},
	{"ru", "🇷🇺 Русский"},
	{"uk", "🇺🇦 Ukrainian"},
	{"id", "🇮🇩 Indonesian"},
}

// T returns the translated string for the key, formatted with args
func T(lang, key string, args ...any) string {
	table, ok := translations[lang]
	if !ok {
		table = translations[Default]
	}
	msg, ok := table[key]
	if !ok {
		msg, ok = translations[Default][key]
		if !ok {
			return "_" + key + "_"
		}
	}
	if len(args) == 0 {
		return msg
	}
	return fmt.Sprintf(msg, args...)
}

var menuKeys = []string{"menu_manage_rules", "menu_add_rule", "menu_languages", "menu_logout"}

// MenuKey maps a menu button label in any language back to its key.
// Returns "" when the text is not a menu button.
func MenuKey(text string) string {
	for _, table := range translations {
		for _, key := range menuKeys {
			if table[key] == text {
				return key
			}
		}
	}
	return ""
}

// Name returns the display name for a language code
func Name(code string) string {
	for _, l := range Languages {
		if l.Code == code {
			return l.Name
		}
	}
	return "🇬🇧 English"
}

var translations = map[string]map[string]string{
	"en": {
		"welcome":             "Welcome! Let's connect your Telegram account.",
		"phone_prompt":        "Send me your phone number in international format (e.g. +15551234567).",
		"code_sent":           "Code sent! Reply with the word mycode followed by the digits, e.g. mycode12345.",
		"code_invalid_format": "That doesn't look right. Send mycode followed by the digits, e.g. mycode12345.",
		"password_prompt":     "Two-factor authentication is enabled. Send me your password.",
		"login_success":       "✅ Logged in! Your forwarding rules are now active.",
		"login_failed":        "❌ Login failed. Send /start to try again.",
		"login_cancelled":     "Login cancelled.",
		"login_timeout":       "Login timed out. Send /start to try again.",
		"already_logged_in":   "You are already logged in.",
		"not_logged_in":       "You are not logged in. Send /start first.",
		"logging_out":         "Logging out...",
		"logout_success":      "👋 Logged out. Your session has been terminated.",
		"menu_header":         "🏠 Main menu\n\nChoose an action:",
		"menu_manage_rules":   "📋 Manage rules",
		"menu_add_rule":       "➕ Add rule",
		"menu_languages":      "🌐 Languages",
		"menu_logout":         "🚪 Logout",
		"add_rule_source":     "Forward me a message from the SOURCE chat.",
		"source_set":          "Source set to %s. Now forward me a message from the DESTINATION chat.",
		"rule_created":        "✅ Rule created and active!",
		"invalid_forward":     "I couldn't read the origin chat of that message. Setup cancelled, start again from the menu.",
		"rules_header":        "Your forwarding rules:",
		"no_rules":            "You have no rules yet. Add one from the menu.",
		"rules_deleted":       "Rule deleted.",
		"rule_gone":           "That rule no longer exists.",
		"lang_header":         "Current language: %s\n\nPick a language:",
		"lang_selected":       "Language set to %s.",
		"error_generic":       "Something went wrong. Please try again later.",
	},
	"ru": {
		"welcome":             "Добро пожаловать! Подключим ваш аккаунт Telegram.",
		"phone_prompt":        "Отправьте номер телефона в международном формате (например, +79991234567).",
		"code_sent":           "Код отправлен! Ответьте словом mycode и цифрами, например mycode12345.",
		"code_invalid_format": "Неверный формат. Отправьте mycode и цифры, например mycode12345.",
		"password_prompt":     "Включена двухфакторная аутентификация. Отправьте пароль.",
		"login_success":       "✅ Вход выполнен! Правила пересылки активны.",
		"login_failed":        "❌ Не удалось войти. Отправьте /start, чтобы попробовать снова.",
		"login_cancelled":     "Вход отменён.",
		"login_timeout":       "Время входа истекло. Отправьте /start, чтобы попробовать снова.",
		"already_logged_in":   "Вы уже вошли.",
		"not_logged_in":       "Вы не вошли. Сначала отправьте /start.",
		"logging_out":         "Выходим...",
		"logout_success":      "👋 Выход выполнен. Сессия завершена.",
		"menu_header":         "🏠 Главное меню\n\nВыберите действие:",
		"menu_manage_rules":   "📋 Правила",
		"menu_add_rule":       "➕ Добавить правило",
		"menu_languages":      "🌐 Языки",
		"menu_logout":         "🚪 Выйти",
		"add_rule_source":     "Перешлите мне сообщение из чата-ИСТОЧНИКА.",
		"source_set":          "Источник: %s. Теперь перешлите сообщение из чата-НАЗНАЧЕНИЯ.",
		"rule_created":        "✅ Правило создано и активно!",
		"invalid_forward":     "Не удалось определить чат-источник сообщения. Настройка отменена, начните заново из меню.",
		"rules_header":        "Ваши правила пересылки:",
		"no_rules":            "Правил пока нет. Добавьте из меню.",
		"rules_deleted":       "Правило удалено.",
		"rule_gone":           "Этого правила больше нет.",
		"lang_header":         "Текущий язык: %s\n\nВыберите язык:",
		"lang_selected":       "Язык изменён на %s.",
		"error_generic":       "Что-то пошло не так. Попробуйте позже.",
	},
	"vi": {
		"welcome":             "Chào mừng! Hãy kết nối tài khoản Telegram của bạn.",
		"phone_prompt":        "Gửi số điện thoại theo định dạng quốc tế (ví dụ +84901234567).",
		"code_sent":           "Đã gửi mã! Trả lời bằng từ mycode kèm các chữ số, ví dụ mycode12345.",
		"code_invalid_format": "Sai định dạng. Gửi mycode kèm các chữ số, ví dụ mycode12345.",
		"password_prompt":     "Xác thực hai yếu tố đang bật. Gửi mật khẩu của bạn.",
		"login_success":       "✅ Đã đăng nhập! Các quy tắc chuyển tiếp đang hoạt động.",
		"login_failed":        "❌ Đăng nhập thất bại. Gửi /start để thử lại.",
		"login_cancelled":     "Đã hủy đăng nhập.",
		"login_timeout":       "Hết thời gian đăng nhập. Gửi /start để thử lại.",
		"already_logged_in":   "Bạn đã đăng nhập rồi.",
		"not_logged_in":       "Bạn chưa đăng nhập. Gửi /start trước.",
		"logging_out":         "Đang đăng xuất...",
		"logout_success":      "👋 Đã đăng xuất. Phiên của bạn đã kết thúc.",
		"menu_header":         "🏠 Menu chính\n\nChọn một hành động:",
		"menu_manage_rules":   "📋 Quản lý quy tắc",
		"menu_add_rule":       "➕ Thêm quy tắc",
		"menu_languages":      "🌐 Ngôn ngữ",
		"menu_logout":         "🚪 Đăng xuất",
		"add_rule_source":     "Chuyển tiếp cho tôi một tin nhắn từ chat NGUỒN.",
		"source_set":          "Nguồn: %s. Giờ chuyển tiếp một tin nhắn từ chat ĐÍCH.",
		"rule_created":        "✅ Đã tạo quy tắc và kích hoạt!",
		"invalid_forward":     "Không đọc được chat gốc của tin nhắn. Đã hủy thiết lập, hãy bắt đầu lại từ menu.",
		"rules_header":        "Các quy tắc chuyển tiếp của bạn:",
		"no_rules":            "Chưa có quy tắc nào. Thêm từ menu.",
		"rules_deleted":       "Đã xóa quy tắc.",
		"rule_gone":           "Quy tắc này không còn tồn tại.",
		"lang_header":         "Ngôn ngữ hiện tại: %s\n\nChọn ngôn ngữ:",
		"lang_selected":       "Đã đổi ngôn ngữ sang %s.",
		"error_generic":       "Đã xảy ra lỗi. Vui lòng thử lại sau.",
	},
	"hi": {
		"welcome":             "स्वागत है! चलिए आपका Telegram खाता जोड़ते हैं।",
		"phone_prompt":        "अपना फ़ोन नंबर अंतरराष्ट्रीय प्रारूप में भेजें (जैसे +919991234567)।",
		"code_sent":           "कोड भेज दिया गया! mycode शब्द और अंकों के साथ जवाब दें, जैसे mycode12345।",
		"code_invalid_format": "गलत प्रारूप। mycode और अंक भेजें, जैसे mycode12345।",
		"password_prompt":     "दो-चरणीय सत्यापन चालू है। अपना पासवर्ड भेजें।",
		"login_success":       "✅ लॉगिन हो गया! आपके फ़ॉरवर्डिंग नियम अब सक्रिय हैं।",
		"login_failed":        "❌ लॉगिन विफल। फिर से कोशिश करने के लिए /start भेजें।",
		"login_cancelled":     "लॉगिन रद्द किया गया।",
		"login_timeout":       "लॉगिन का समय समाप्त। फिर से कोशिश करने के लिए /start भेजें।",
		"already_logged_in":   "आप पहले से लॉगिन हैं।",
		"not_logged_in":       "आप लॉगिन नहीं हैं। पहले /start भेजें।",
		"logging_out":         "लॉगआउट हो रहा है...",
		"logout_success":      "👋 लॉगआउट हो गया। आपका सत्र समाप्त हो गया है।",
		"menu_header":         "🏠 मुख्य मेनू\n\nक्रिया चुनें:",
		"menu_manage_rules":   "📋 नियम प्रबंधन",
		"menu_add_rule":       "➕ नियम जोड़ें",
		"menu_languages":      "🌐 भाषाएँ",
		"menu_logout":         "🚪 लॉगआउट",
		"add_rule_source":     "मुझे स्रोत चैट से एक संदेश फ़ॉरवर्ड करें।",
		"source_set":          "स्रोत: %s। अब गंतव्य चैट से एक संदेश फ़ॉरवर्ड करें।",
		"rule_created":        "✅ नियम बन गया और सक्रिय है!",
		"invalid_forward":     "उस संदेश का स्रोत चैट नहीं पढ़ा जा सका। सेटअप रद्द, मेनू से फिर शुरू करें।",
		"rules_header":        "आपके फ़ॉरवर्डिंग नियम:",
		"no_rules":            "अभी कोई नियम नहीं है। मेनू से जोड़ें।",
		"rules_deleted":       "नियम हटा दिया गया।",
		"rule_gone":           "यह नियम अब मौजूद नहीं है।",
		"lang_header":         "वर्तमान भाषा: %s\n\nभाषा चुनें:",
		"lang_selected":       "भाषा %s पर सेट की गई।",
		"error_generic":       "कुछ गलत हो गया। कृपया बाद में फिर से कोशिश करें।",
	},
	"pt": {
		"welcome":             "Bem-vindo! Vamos conectar a sua conta do Telegram.",
		"phone_prompt":        "Envie o seu número de telefone no formato internacional (ex.: +351991234567).",
		"code_sent":           "Código enviado! Responda com a palavra mycode seguida dos dígitos, ex.: mycode12345.",
		"code_invalid_format": "Formato inválido. Envie mycode seguido dos dígitos, ex.: mycode12345.",
		"password_prompt":     "A autenticação em duas etapas está ativa. Envie a sua senha.",
		"login_success":       "✅ Sessão iniciada! As suas regras de encaminhamento estão ativas.",
		"login_failed":        "❌ Falha no login. Envie /start para tentar novamente.",
		"login_cancelled":     "Login cancelado.",
		"login_timeout":       "O login expirou. Envie /start para tentar novamente.",
		"already_logged_in":   "Você já está conectado.",
		"not_logged_in":       "Você não está conectado. Envie /start primeiro.",
		"logging_out":         "Saindo...",
		"logout_success":      "👋 Sessão encerrada.",
		"menu_header":         "🏠 Menu principal\n\nEscolha uma ação:",
		"menu_manage_rules":   "📋 Gerenciar regras",
		"menu_add_rule":       "➕ Adicionar regra",
		"menu_languages":      "🌐 Idiomas",
		"menu_logout":         "🚪 Sair",
		"add_rule_source":     "Encaminhe-me uma mensagem do chat de ORIGEM.",
		"source_set":          "Origem: %s. Agora encaminhe uma mensagem do chat de DESTINO.",
		"rule_created":        "✅ Regra criada e ativa!",
		"invalid_forward":     "Não foi possível ler o chat de origem dessa mensagem. Configuração cancelada, recomece pelo menu.",
		"rules_header":        "Suas regras de encaminhamento:",
		"no_rules":            "Você ainda não tem regras. Adicione pelo menu.",
		"rules_deleted":       "Regra excluída.",
		"rule_gone":           "Essa regra não existe mais.",
		"lang_header":         "Idioma atual: %s\n\nEscolha um idioma:",
		"lang_selected":       "Idioma definido para %s.",
		"error_generic":       "Algo deu errado. Tente novamente mais tarde.",
	},
	"zh-cn": {
		"welcome":             "欢迎！让我们连接您的 Telegram 账号。",
		"phone_prompt":        "请按国际格式发送您的手机号（例如 +8613912345678）。",
		"code_sent":           "验证码已发送！请回复 mycode 加数字，例如 mycode12345。",
		"code_invalid_format": "格式不正确。请发送 mycode 加数字，例如 mycode12345。",
		"password_prompt":     "已启用两步验证。请发送您的密码。",
		"login_success":       "✅ 登录成功！您的转发规则已生效。",
		"login_failed":        "❌ 登录失败。发送 /start 重试。",
		"login_cancelled":     "登录已取消。",
		"login_timeout":       "登录超时。发送 /start 重试。",
		"already_logged_in":   "您已经登录。",
		"not_logged_in":       "您尚未登录。请先发送 /start。",
		"logging_out":         "正在退出...",
		"logout_success":      "👋 已退出登录，会话已结束。",
		"menu_header":         "🏠 主菜单\n\n请选择操作：",
		"menu_manage_rules":   "📋 管理规则",
		"menu_add_rule":       "➕ 添加规则",
		"menu_languages":      "🌐 语言",
		"menu_logout":         "🚪 退出登录",
		"add_rule_source":     "请从来源聊天转发一条消息给我。",
		"source_set":          "来源：%s。现在请从目标聊天转发一条消息。",
		"rule_created":        "✅ 规则已创建并生效！",
		"invalid_forward":     "无法识别这条消息的来源聊天。设置已取消，请从菜单重新开始。",
		"rules_header":        "您的转发规则：",
		"no_rules":            "还没有规则。请从菜单添加。",
		"rules_deleted":       "规则已删除。",
		"rule_gone":           "该规则已不存在。",
		"lang_header":         "当前语言：%s\n\n请选择语言：",
		"lang_selected":       "语言已设置为 %s。",
		"error_generic":       "出了点问题，请稍后再试。",
	},
	"uk": {
		"welcome":             "Вітаємо! Підключимо ваш акаунт Telegram.",
		"phone_prompt":        "Надішліть номер телефону в міжнародному форматі (наприклад, +380991234567).",
		"code_sent":           "Код надіслано! Відповідайте словом mycode і цифрами, наприклад mycode12345.",
		"code_invalid_format": "Невірний формат. Надішліть mycode і цифри, наприклад mycode12345.",
		"password_prompt":     "Увімкнено двофакторну автентифікацію. Надішліть пароль.",
		"login_success":       "✅ Вхід виконано! Правила пересилання активні.",
		"login_failed":        "❌ Не вдалося увійти. Надішліть /start, щоб спробувати знову.",
		"login_cancelled":     "Вхід скасовано.",
		"login_timeout":       "Час входу минув. Надішліть /start, щоб спробувати знову.",
		"already_logged_in":   "Ви вже увійшли.",
		"not_logged_in":       "Ви не увійшли. Спершу надішліть /start.",
		"logging_out":         "Виходимо...",
		"logout_success":      "👋 Вихід виконано. Сесію завершено.",
		"menu_header":         "🏠 Головне меню\n\nОберіть дію:",
		"menu_manage_rules":   "📋 Правила",
		"menu_add_rule":       "➕ Додати правило",
		"menu_languages":      "🌐 Мови",
		"menu_logout":         "🚪 Вийти",
		"add_rule_source":     "Перешліть мені повідомлення з чату-ДЖЕРЕЛА.",
		"source_set":          "Джерело: %s. Тепер перешліть повідомлення з чату-ПРИЗНАЧЕННЯ.",
		"rule_created":        "✅ Правило створено й активне!",
		"invalid_forward":     "Не вдалося визначити чат-джерело повідомлення. Налаштування скасовано, почніть знову з меню.",
		"rules_header":        "Ваші правила пересилання:",
		"no_rules":            "Правил поки немає. Додайте з меню.",
		"rules_deleted":       "Правило видалено.",
		"rule_gone":           "Цього правила більше немає.",
		"lang_header":         "Поточна мова: %s\n\nОберіть мову:",
		"lang_selected":       "Мову змінено на %s.",
		"error_generic":       "Щось пішло не так. Спробуйте пізніше.",
	},
	"id": {
		"welcome":             "Selamat datang! Mari hubungkan akun Telegram Anda.",
		"phone_prompt":        "Kirim nomor telepon Anda dalam format internasional (misal +628123456789).",
		"code_sent":           "Kode terkirim! Balas dengan kata mycode diikuti angka, misal mycode12345.",
		"code_invalid_format": "Format salah. Kirim mycode diikuti angka, misal mycode12345.",
		"password_prompt":     "Verifikasi dua langkah aktif. Kirim kata sandi Anda.",
		"login_success":       "✅ Berhasil masuk! Aturan penerusan Anda kini aktif.",
		"login_failed":        "❌ Gagal masuk. Kirim /start untuk mencoba lagi.",
		"login_cancelled":     "Login dibatalkan.",
		"login_timeout":       "Waktu login habis. Kirim /start untuk mencoba lagi.",
		"already_logged_in":   "Anda sudah masuk.",
		"not_logged_in":       "Anda belum masuk. Kirim /start terlebih dahulu.",
		"logging_out":         "Sedang keluar...",
		"logout_success":      "👋 Berhasil keluar. Sesi Anda telah diakhiri.",
		"menu_header":         "🏠 Menu utama\n\nPilih tindakan:",
		"menu_manage_rules":   "📋 Kelola aturan",
		"menu_add_rule":       "➕ Tambah aturan",
		"menu_languages":      "🌐 Bahasa",
		"menu_logout":         "🚪 Keluar",
		"add_rule_source":     "Teruskan pesan dari chat SUMBER kepada saya.",
		"source_set":          "Sumber: %s. Sekarang teruskan pesan dari chat TUJUAN.",
		"rule_created":        "✅ Aturan dibuat dan aktif!",
		"invalid_forward":     "Chat asal pesan itu tidak terbaca. Penyiapan dibatalkan, mulai lagi dari menu.",
		"rules_header":        "Aturan penerusan Anda:",
		"no_rules":            "Belum ada aturan. Tambahkan dari menu.",
		"rules_deleted":       "Aturan dihapus.",
		"rule_gone":           "Aturan itu sudah tidak ada.",
		"lang_header":         "Bahasa saat ini: %s\n\nPilih bahasa:",
		"lang_selected":       "Bahasa diatur ke %s.",
		"error_generic":       "Terjadi kesalahan. Coba lagi nanti.",
	},
}
