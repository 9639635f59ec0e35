package controllers

import (
	"log"
	"net/http"
	"time"

	"ticketworld/src/db"
	"ticketworld/src/middlewares"
	"ticketworld/src/models"
	"ticketworld/src/types"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RegisterUser creates an account and hands back a bearer token so the
// client can start reserving immediately.
func RegisterUser(ctx *gin.Context) (token *string, status int, err error) {
	var body types.RegisterUserRequestBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		return nil, http.StatusBadRequest, err
	}
	con := db.GetDb()
	var user models.User
	err = con.Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.
			Model(&models.User{}).
			Where(&models.User{Email: body.Email}).
			Count(&existing).
			Error; err != nil {
			return err
		}
		if existing > 0 {
			return gorm.ErrDuplicatedKey
		}
		user = models.User{
			Name:  body.Name,
			Email: body.Email,
			Role:  "member",
		}
		return tx.Create(&user).Error
	})
	if err != nil {
		log.Printf("Error registering user [%s]: %s\n", body.Email, err.Error())
		return nil, http.StatusBadRequest, err
	}
	signed, err := middlewares.GenerateToken(&user, 24*time.Hour)
	if err != nil {
		log.Printf("Error signing token for user [%d]: %s\n", user.ID, err.Error())
		return nil, http.StatusBadRequest, err
	}
	return &signed, http.StatusCreated, nil
}

// GetAccount returns the authenticated user's own record.
func GetAccount(ctx *gin.Context) (*models.User, int, error) {
	userId := ctx.GetUint("id")
	con := db.GetDb()
	var user models.User
	if err := con.
		Where(&models.User{ID: userId}).
		First(&user).
		Error; err != nil {
		return nil, http.StatusNotFound, err
	}
	return &user, http.StatusOK, nil
}
