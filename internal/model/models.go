package model

import (
	"time"

	"gorm.io/datatypes"
)

// SystemTables 系统内置表，不对数据管理接口暴露
var SystemTables = []string{"templates", "field_mappings", "api_configs"}

// IsSystemTable 判断表名是否为系统表
func IsSystemTable(name string) bool {
	for _, t := range SystemTables {
		if t == name {
			return true
		}
	}
	return false
}

// Template 简历模板，docx 文件内容直接存库
type Template struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	Name        string         `json:"name" gorm:"size:255;index"`
	Filename    string         `json:"filename" gorm:"size:255"`
	FileContent []byte         `json:"-" gorm:"type:blob"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	Mappings    []FieldMapping `json:"mappings,omitempty" gorm:"foreignKey:TemplateID;constraint:OnDelete:CASCADE"`
}

func (Template) TableName() string {
	return "templates"
}

// FieldMapping 模板占位符与数据表列的映射关系
// mapping_data: 占位符 -> 列名；ai_instructions: 占位符 -> 写作约束
// (template_id, table_name) 唯一，保存时整体替换
type FieldMapping struct {
	ID             uint           `json:"id" gorm:"primaryKey"`
	TemplateID     uint           `json:"template_id" gorm:"uniqueIndex:uq_template_table;not null"`
	TableName      string         `json:"table_name" gorm:"size:255;uniqueIndex:uq_template_table;not null"`
	MappingData    datatypes.JSON `json:"mapping_data"`
	AIInstructions datatypes.JSON `json:"ai_instructions"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// FieldInstruction 单个占位符的 AI 写作约束
type FieldInstruction struct {
	Length      string `json:"length,omitempty"`
	Format      string `json:"format,omitempty"`
	Description string `json:"description,omitempty"`
	Other       string `json:"other,omitempty"`
}

// StandardField 标准简历字段目录项，供映射配置界面下拉选择
type StandardField struct {
	Key         string `json:"key"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// StandardResumeFields 标准简历字段目录
var StandardResumeFields = []StandardField{
	{Key: "full_name", Label: "姓名", Description: "候选人全名"},
	{Key: "email", Label: "电子邮箱", Description: "联系邮箱"},
	{Key: "phone", Label: "电话号码", Description: "联系电话"},
	{Key: "linkedin", Label: "LinkedIn/个人主页", Description: "个人主页链接"},
	{Key: "summary", Label: "个人简介", Description: "简短的职业概述"},
	{Key: "skills", Label: "技能列表", Description: "技术或专业技能"},
	{Key: "experience_company", Label: "公司名称", Description: "工作过的公司"},
	{Key: "experience_title", Label: "职位名称", Description: "担任的职务"},
	{Key: "experience_dates", Label: "任职时间", Description: "开始和结束时间"},
	{Key: "experience_description", Label: "工作描述", Description: "职责和成就"},
	{Key: "education_school", Label: "学校/大学", Description: "毕业院校"},
	{Key: "education_degree", Label: "学位", Description: "获得的学位"},
	{Key: "education_year", Label: "毕业年份", Description: "毕业时间"},
}
