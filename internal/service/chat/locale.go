package chat

import "fmt"

// Canned texts the bot sends without going through the model: the
// first-contact welcome and the fallbacks when a turn cannot produce a
// usable reply. Turkish gets its own copy, every other language falls
// back to English.

func welcomeMessage(lang, userName string) string {
	if lang == "tr" {
		if userName != "" {
			return fmt.Sprintf("Merhaba %s! Ben Nyxie! Seninle sohbet etmek için buradayım. Bana istediğini yazabilir, fotoğraf ve video da gönderebilirsin!", userName)
		}
		return "Merhaba! Ben Nyxie! Seninle sohbet etmek için buradayım. Bana istediğini yazabilir, fotoğraf ve video da gönderebilirsin!"
	}
	if userName != "" {
		return fmt.Sprintf("Hi %s! I'm Nyxie! I'm here to chat about anything you like. Send me a message, a photo or a video and let's talk!", userName)
	}
	return "Hi! I'm Nyxie! I'm here to chat about anything you like. Send me a message, a photo or a video and let's talk!"
}

func errorMessage(lang string) string {
	if lang == "tr" {
		return "Şu an cevap veremiyorum, kafam biraz karışık. Birazdan tekrar dener misin?"
	}
	return "I can't quite find my words right now. Mind trying again in a bit?"
}

func unsupportedMediaMessage(lang string) string {
	if lang == "tr" {
		return "Bu dosya türünü henüz anlayamıyorum. Fotoğraf ya da video gönderirsen ona bakabilirim!"
	}
	return "I can't make sense of that file type yet. Send me a photo or a video and I'll take a look!"
}
