package comentario

import "time"

type AutorDTO struct {
	Tipo string `json:"tipo"` // "usuario" | "sistema"
	Nome string `json:"nome"`
}

type ComentarioDTO struct {
	ID           uint      `json:"id"`
	LancamentoID uint      `json:"lancamentoId"`
	Texto        string    `json:"texto"`
	Sistema      bool      `json:"sistema"`
	CriadoEm     time.Time `json:"criadoEm"`
	Autor        AutorDTO  `json:"autor"`
}

func toDTO(c Comentario) ComentarioDTO {
	out := ComentarioDTO{
		ID:           c.ID,
		LancamentoID: c.LancamentoID,
		Texto:        c.Texto,
		Sistema:      c.Sistema,
		CriadoEm:     c.CreatedAt,
	}
	if c.Sistema {
		out.Autor = AutorDTO{Tipo: "sistema", Nome: "Sistema"}
		return out
	}
	out.Autor = AutorDTO{Tipo: "usuario", Nome: c.Autor}
	return out
}

func toDTOs(list []Comentario) []ComentarioDTO {
	out := make([]ComentarioDTO, 0, len(list))
	for _, c := range list {
		out = append(out, toDTO(c))
	}
	return out
}
