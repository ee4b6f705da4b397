// Command cdk defines the infrastructure stack for the digest & podcast
// pipeline: the single DynamoDB table (§6's persisted collections, all
// addressed by the PK/SK convention in internal/store), the S3 bucket for
// scripts/audio, and the EventBridge-triggered scheduler-lambda that
// replaces cmd/scheduler's standalone ticker in a serverless deployment.
// No repo in the reference pack uses aws-cdk-go beyond declaring it in
// go.mod, so this file follows the library's own canonical
// App/Stack/Synth shape rather than a pack-specific idiom (see DESIGN.md).
package main

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsdynamodb"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsevents"
	"github.com/aws/aws-cdk-go/awscdk/v2/awseventstargets"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslambda"
	"github.com/aws/aws-cdk-go/awscdk/v2/awss3"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
)

type pipelineStackProps struct {
	awscdk.StackProps
}

func newPipelineStack(scope constructs.Construct, id string, props *pipelineStackProps) awscdk.Stack {
	var sprops awscdk.StackProps
	if props != nil {
		sprops = props.StackProps
	}
	stack := awscdk.NewStack(scope, &id, &sprops)

	table := awsdynamodb.NewTable(stack, jsii.String("NewsbriefTable"), &awsdynamodb.TableProps{
		TableName: jsii.String("newsbrief-prod"),
		PartitionKey: &awsdynamodb.Attribute{
			Name: jsii.String("PK"),
			Type: awsdynamodb.AttributeType_STRING,
		},
		SortKey: &awsdynamodb.Attribute{
			Name: jsii.String("SK"),
			Type: awsdynamodb.AttributeType_STRING,
		},
		BillingMode:   awsdynamodb.BillingMode_PAY_PER_REQUEST,
		RemovalPolicy: awscdk.RemovalPolicy_RETAIN,
	})

	bucket := awss3.NewBucket(stack, jsii.String("NewsbriefMediaBucket"), &awss3.BucketProps{
		BucketName:        jsii.String("newsbrief-media-prod"),
		BlockPublicAccess: awss3.BlockPublicAccess_BLOCK_ALL(),
		Encryption:        awss3.BucketEncryption_S3_MANAGED,
		RemovalPolicy:     awscdk.RemovalPolicy_RETAIN,
	})

	schedulerFn := awslambda.NewFunction(stack, jsii.String("SchedulerTickFunction"), &awslambda.FunctionProps{
		FunctionName: jsii.String("newsbrief-scheduler-tick"),
		Runtime:      awslambda.Runtime_PROVIDED_AL2023(),
		Handler:      jsii.String("bootstrap"),
		Code:         awslambda.Code_FromAsset(jsii.String("../../cmd/scheduler-lambda/bootstrap.zip"), nil),
		MemorySize:   jsii.Number(512),
		Timeout:      awscdk.Duration_Minutes(jsii.Number(5)),
		Environment: &map[string]*string{
			"DYNAMODB_TABLE": table.TableName(),
			"S3_BUCKET":      bucket.BucketName(),
			"AWS_REGION":     stack.Region(),
		},
	})
	table.GrantReadWriteData(schedulerFn)
	bucket.GrantReadWrite(schedulerFn)

	// §6's "cron-equivalent */15 * * * *".
	awsevents.NewRule(stack, jsii.String("SchedulerTickRule"), &awsevents.RuleProps{
		RuleName:   jsii.String("newsbrief-scheduler-tick"),
		Schedule:   awsevents.Schedule_Expression(jsii.String("rate(15 minutes)")),
		Targets:    &[]awsevents.IRuleTarget{awseventstargets.NewLambdaFunction(schedulerFn, nil)},
		Enabled:    jsii.Bool(true),
		Description: jsii.String("Triggers the §4.9 scheduler tick every 15 minutes"),
	})

	return stack
}

func main() {
	defer jsii.Close()

	app := awscdk.NewApp(nil)
	newPipelineStack(app, "NewsbriefPipelineStack", &pipelineStackProps{
		StackProps: awscdk.StackProps{
			Env: env(),
		},
	})
	app.Synth(nil)
}

func env() *awscdk.Environment {
	return nil
}
