// hashsenha gera o hash bcrypt usado em USERS_PATH e ADMIN_PASSWORD_HASH.
// Sem -senha, sorteia uma senha temporária e imprime as duas.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/stik/comissys/internal/utils"
)

func main() {
	senha := flag.String("senha", "", "senha em texto; vazio gera uma temporária")
	tamanho := flag.Int("tamanho", 12, "tamanho da senha temporária")
	flag.Parse()

	if *senha == "" {
		s, err := utils.GerarSenhaTemporaria(*tamanho)
		if err != nil {
			fmt.Fprintln(os.Stderr, "erro ao gerar senha:", err)
			os.Exit(1)
		}
		*senha = s
		fmt.Println("senha:", s)
	}

	hash, err := utils.HashSenha(*senha)
	if err != nil {
		fmt.Fprintln(os.Stderr, "erro ao gerar hash:", err)
		os.Exit(1)
	}
	fmt.Println("hash: ", hash)
}
