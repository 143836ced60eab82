// Package packs holds the static content banks for the hangman game and
// the sampler that draws the rounds for one session.
package packs

import (
	"errors"
	"math/rand"
)

var ErrUnknownBank = errors.New("unknown content bank")

// Entry is one puzzle in a bank: a topic, a hint shown to the group and
// the answer word.
type Entry struct {
	Topic string `json:"topic"`
	Hint  string `json:"hint"`
	Word  string `json:"word"`
}

// Bank is a registered catalog of entries.
type Bank struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Entries     []Entry `json:"-"`
}

const BankPeruPersonalSocial = "peru-personal-social"

// Words are stored upper-case and without accents. Ñ is used as-is
// (e.g. VICUÑA).
var bancoPeruPersonalSocial = []Entry{
	// Símbolos y cívica
	{Topic: "Símbolos", Hint: "Rojo y blanco, símbolo del país.", Word: "BANDERA"},
	{Topic: "Símbolos", Hint: "Tiene vicuña, quina y cornucopia.", Word: "ESCUDO"},
	{Topic: "Símbolos", Hint: "Lo cantamos en actos cívicos.", Word: "HIMNO"},
	{Topic: "Cívica", Hint: "Nuestro país en Sudamérica.", Word: "PERU"},
	{Topic: "Cívica", Hint: "Se celebra el 28 de julio.", Word: "INDEPENDENCIA"},

	// Regiones y geografía
	{Topic: "Regiones", Hint: "Zona pegada al mar.", Word: "COSTA"},
	{Topic: "Regiones", Hint: "Zona de montañas altas.", Word: "SIERRA"},
	{Topic: "Regiones", Hint: "Zona de bosques y ríos.", Word: "SELVA"},
	{Topic: "Geografía", Hint: "Grandes montañas del Perú.", Word: "ANDES"},
	{Topic: "Geografía", Hint: "Océano al oeste del Perú.", Word: "PACIFICO"},
	{Topic: "Ríos", Hint: "Nace en Perú y cruza Sudamérica.", Word: "AMAZONAS"},
	{Topic: "Lagos", Hint: "Lago alto compartido con Bolivia.", Word: "TITICACA"},
	{Topic: "Geografía", Hint: "Famoso cañón en Arequipa.", Word: "COLCA"},

	// Ciudades y regiones
	{Topic: "Capitales", Hint: "Capital del Perú.", Word: "LIMA"},
	{Topic: "Ciudades", Hint: "Ciudad inca y turística.", Word: "CUSCO"},
	{Topic: "Ciudades", Hint: "Ciudad blanca del Misti.", Word: "AREQUIPA"},
	{Topic: "Ciudades", Hint: "Región cálida al norte.", Word: "PIURA"},
	{Topic: "Ciudades", Hint: "Región de uvas y dunas.", Word: "ICA"},
	{Topic: "Ciudades", Hint: "Región del lago Titicaca.", Word: "PUNO"},

	// Patrimonio
	{Topic: "Patrimonio", Hint: "Ciudadela inca en la montaña.", Word: "MACHUPICCHU"},
	{Topic: "Patrimonio", Hint: "Líneas misteriosas del desierto.", Word: "NAZCA"},
	{Topic: "Patrimonio", Hint: "Ciudad de barro chimú.", Word: "CHANCHAN"},
	{Topic: "Patrimonio", Hint: "Ciudad muy antigua de América.", Word: "CARAL"},
	{Topic: "Patrimonio", Hint: "Fortaleza de los chachapoyas.", Word: "KUELAP"},

	// Danzas
	{Topic: "Danzas", Hint: "Baile elegante del norte.", Word: "MARINERA"},
	{Topic: "Danzas", Hint: "Baile andino tradicional.", Word: "HUAYNO"},
	{Topic: "Danzas", Hint: "Baile afroperuano alegre.", Word: "FESTEJO"},

	// Gastronomía
	{Topic: "Gastronomía", Hint: "Plato de pescado con limón.", Word: "CEVICHE"},
	{Topic: "Gastronomía", Hint: "Cocción bajo tierra con piedras.", Word: "PACHAMANCA"},

	// Lenguas y pueblos
	{Topic: "Lenguas", Hint: "Lengua andina del Tahuantinsuyo.", Word: "QUECHUA"},
	{Topic: "Lenguas", Hint: "Lengua del altiplano.", Word: "AIMARA"},

	// Animales emblemáticos
	{Topic: "Animales", Hint: "Ave de los Andes, vuela alto.", Word: "CONDOR"},
	{Topic: "Animales", Hint: "Camélido de lana fina.", Word: "ALPACA"},
	{Topic: "Animales", Hint: "Camélido que carga y escupe.", Word: "LLAMA"},
	{Topic: "Animales", Hint: "Animal nacional con Ñ.", Word: "VICUÑA"},

	// Valores (refuerzo)
	{Topic: "Valores", Hint: "Tratar bien a los demás.", Word: "RESPETO"},
	{Topic: "Valores", Hint: "Decir la verdad.", Word: "HONESTIDAD"},
	{Topic: "Valores", Hint: "Cumplir tareas y compromisos.", Word: "RESPONSABILIDAD"},
	{Topic: "Valores", Hint: "Ayudar a otros.", Word: "SOLIDARIDAD"},
	{Topic: "Valores", Hint: "Ponerse en el lugar del otro.", Word: "EMPATIA"},
}

var banks = map[string]*Bank{
	BankPeruPersonalSocial: {
		ID:          BankPeruPersonalSocial,
		Name:        "Perú – Personal Social",
		Description: "Perú: símbolos, regiones, patrimonio cultural, danzas, gastronomía, lenguas, animales y valores.",
		Entries:     bancoPeruPersonalSocial,
	},
}

// Get returns a registered bank or ErrUnknownBank.
func Get(bankID string) (*Bank, error) {
	bank, ok := banks[bankID]
	if !ok {
		return nil, ErrUnknownBank
	}
	return bank, nil
}

// List returns all registered banks, for the moderator's activity form.
func List() []*Bank {
	out := make([]*Bank, 0, len(banks))
	for _, b := range banks {
		out = append(out, b)
	}
	return out
}

// Sample draws up to n distinct entries from the named bank, in random
// order, with each answer word normalized. n is capped at the bank size;
// an empty bank yields an empty slice, which callers must treat as a
// no-content failure.
func Sample(bankID string, n int) ([]Entry, error) {
	bank, err := Get(bankID)
	if err != nil {
		return nil, err
	}

	shuffled := make([]Entry, len(bank.Entries))
	copy(shuffled, bank.Entries)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	if n > len(shuffled) {
		n = len(shuffled)
	}
	if n < 0 {
		n = 0
	}

	selection := make([]Entry, n)
	for i := 0; i < n; i++ {
		selection[i] = Entry{
			Topic: shuffled[i].Topic,
			Hint:  shuffled[i].Hint,
			Word:  NormalizeWord(shuffled[i].Word),
		}
	}
	return selection, nil
}
